package team

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
//
// Pending and Blocked are derived from dependency state by RefreshBlocking.
// InProgress and Done are only reached through ClaimTask and CompleteTask.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskBlocked    TaskStatus = "blocked"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

func (s *TaskStatus) UnmarshalText(b []byte) error {
	switch v := TaskStatus(b); v {
	case TaskPending, TaskBlocked, TaskInProgress, TaskDone:
		*s = v
		return nil
	}
	return fmt.Errorf("invalid task status: %q", string(b))
}

// Task is a unit of work with immutable dependencies and a set of touched
// files used for conflict exclusion.
type Task struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Status       TaskStatus `json:"status"`
	Assignee     *int       `json:"assignee"`
	Deps         []int      `json:"deps"`
	TouchedFiles []string   `json:"touched_files"`
	InputTokens  uint64     `json:"input_tokens"`
	OutputTokens uint64     `json:"output_tokens"`
	CostUSD      float64    `json:"cost_usd"`
	CreatedAt    int64      `json:"created_at"`
	UpdatedAt    int64      `json:"updated_at"`

	// RecoveryHold marks a task parked as blocked by manual recovery.
	// RefreshBlocking leaves held tasks alone until ReleaseTask clears it.
	RecoveryHold bool `json:"recovery_hold,omitempty"`
}

func (t *Task) normalize() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Deps == nil {
		t.Deps = []int{}
	}
	if t.TouchedFiles == nil {
		t.TouchedFiles = []string{}
	}
}

func (t Task) clone() Task {
	t.Deps = cloneInts(t.Deps)
	if t.TouchedFiles != nil {
		t.TouchedFiles = slices.Clone(t.TouchedFiles)
	}
	return t
}

// AddTask appends a new task. Every dependency must name an existing task;
// the new task starts blocked unless all of them are done.
func (t *Team) AddTask(title string, deps []int, touchedFiles []string, now time.Time) (Task, error) {
	for _, dep := range deps {
		if _, err := t.taskIndex(dep); err != nil {
			return Task{}, fmt.Errorf("%w: %d", ErrUnknownDependency, dep)
		}
	}
	if err := t.checkDependencies(); err != nil {
		return Task{}, err
	}

	ts := unix(now)
	task := Task{
		ID:           t.NextTaskID,
		Title:        title,
		Status:       TaskPending,
		Deps:         append([]int{}, deps...),
		TouchedFiles: append([]string{}, touchedFiles...),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	t.NextTaskID++
	t.Tasks = append(t.Tasks, task)

	if err := t.RefreshBlocking(now); err != nil {
		return Task{}, err
	}
	return t.Tasks[len(t.Tasks)-1].clone(), nil
}

// ClaimTask moves a pending task to in-progress and assigns it to the member.
func (t *Team) ClaimTask(memberID, taskID int, now time.Time) (Task, error) {
	m, err := t.member(memberID)
	if err != nil {
		return Task{}, err
	}
	if err := t.executionGates(m); err != nil {
		return Task{}, err
	}
	if err := t.RefreshBlocking(now); err != nil {
		return Task{}, err
	}

	idx, err := t.taskIndex(taskID)
	if err != nil {
		return Task{}, err
	}
	if t.Tasks[idx].Status != TaskPending {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotPending, taskID)
	}
	if t.hasFileConflict(idx) {
		return Task{}, fmt.Errorf("%w: %d", ErrFileConflict, taskID)
	}

	t.assign(idx, memberID, now)
	return t.Tasks[idx].clone(), nil
}

// AutoClaimNextTask claims the lowest-id pending task that has no file
// conflict. ok is false when nothing is claimable; that is not an error.
func (t *Team) AutoClaimNextTask(memberID int, now time.Time) (task Task, ok bool, err error) {
	m, err := t.member(memberID)
	if err != nil {
		return Task{}, false, err
	}
	if err := t.executionGates(m); err != nil {
		return Task{}, false, err
	}
	if err := t.RefreshBlocking(now); err != nil {
		return Task{}, false, err
	}

	// Tasks are appended in id order and never removed.
	for idx := range t.Tasks {
		if t.Tasks[idx].Status != TaskPending || t.hasFileConflict(idx) {
			continue
		}
		t.assign(idx, memberID, now)
		return t.Tasks[idx].clone(), true, nil
	}
	return Task{}, false, nil
}

func (t *Team) assign(idx, memberID int, now time.Time) {
	task := &t.Tasks[idx]
	task.Status = TaskInProgress
	task.Assignee = ptr(memberID)
	task.UpdatedAt = unix(now)
}

// CompleteTask marks an in-progress task done and credits the usage to both
// the task and the member. Negative cost is clamped to zero.
func (t *Team) CompleteTask(memberID, taskID int, inputTokens, outputTokens uint64, costUSD float64, now time.Time) error {
	m, err := t.member(memberID)
	if err != nil {
		return err
	}
	if err := m.ensureActive(); err != nil {
		return err
	}

	idx, err := t.taskIndex(taskID)
	if err != nil {
		return err
	}
	task := &t.Tasks[idx]
	if task.Status != TaskInProgress {
		return fmt.Errorf("%w: %d", ErrTaskNotInProgress, taskID)
	}
	if task.Assignee == nil || *task.Assignee != memberID {
		return fmt.Errorf("%w: member %d, task %d", ErrNotAssignee, memberID, taskID)
	}
	if err := t.checkDependencies(); err != nil {
		return err
	}

	cost := max(costUSD, 0)

	task.Status = TaskDone
	task.UpdatedAt = unix(now)
	task.InputTokens += inputTokens
	task.OutputTokens += outputTokens
	task.CostUSD += cost

	m.InputTokens += inputTokens
	m.OutputTokens += outputTokens
	m.CostUSD += cost

	return t.RefreshBlocking(now)
}

// ReleaseTask clears a manual-recovery hold so the task's status is derived
// from its dependencies again.
func (t *Team) ReleaseTask(taskID int, now time.Time) (Task, error) {
	idx, err := t.taskIndex(taskID)
	if err != nil {
		return Task{}, err
	}
	if !t.Tasks[idx].RecoveryHold {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotHeld, taskID)
	}
	if err := t.checkDependencies(); err != nil {
		return Task{}, err
	}

	t.Tasks[idx].RecoveryHold = false
	t.Tasks[idx].UpdatedAt = unix(now)
	if err := t.RefreshBlocking(now); err != nil {
		return Task{}, err
	}
	return t.Tasks[idx].clone(), nil
}

// RefreshBlocking recomputes Pending/Blocked for every task that is not
// in progress, done, or held by manual recovery. It is idempotent. A
// dependency on an unknown task fails the whole pass before anything is
// changed.
func (t *Team) RefreshBlocking(now time.Time) error {
	if err := t.checkDependencies(); err != nil {
		return err
	}

	done := make(map[int]struct{}, len(t.Tasks))
	for _, task := range t.Tasks {
		if task.Status == TaskDone {
			done[task.ID] = struct{}{}
		}
	}

	for i := range t.Tasks {
		task := &t.Tasks[i]
		if task.Status == TaskInProgress || task.Status == TaskDone || task.RecoveryHold {
			continue
		}

		next := TaskPending
		for _, dep := range task.Deps {
			if _, ok := done[dep]; !ok {
				next = TaskBlocked
				break
			}
		}
		if task.Status != next {
			task.Status = next
			task.UpdatedAt = unix(now)
		}
	}
	return nil
}

func (t *Team) checkDependencies() error {
	ids := make(map[int]struct{}, len(t.Tasks))
	for _, task := range t.Tasks {
		ids[task.ID] = struct{}{}
	}

	for _, task := range t.Tasks {
		if task.Status == TaskInProgress || task.Status == TaskDone {
			continue
		}
		for _, dep := range task.Deps {
			if _, ok := ids[dep]; !ok {
				return fmt.Errorf("%w: task %d depends on %d", ErrMissingDependency, task.ID, dep)
			}
		}
	}
	return nil
}

// hasFileConflict reports whether the task at idx touches a file that an
// in-progress task also touches. Paths compare trimmed and lowercased.
func (t *Team) hasFileConflict(idx int) bool {
	candidate := normalizedFiles(t.Tasks[idx].TouchedFiles)
	if len(candidate) == 0 {
		return false
	}

	for i, other := range t.Tasks {
		if i == idx || other.Status != TaskInProgress {
			continue
		}
		for _, p := range other.TouchedFiles {
			if _, ok := candidate[normalizePath(p)]; ok {
				return true
			}
		}
	}
	return false
}

func normalizedFiles(files []string) map[string]struct{} {
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		if p := normalizePath(f); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

func normalizePath(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
