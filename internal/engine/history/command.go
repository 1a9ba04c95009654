package history

import "fmt"

// Command is an undoable edit of a State.
type Command interface {
	// Execute performs the command and returns an error if it fails.
	Execute(st State) error

	// Undo reverses the command and returns an error if it fails.
	Undo(st State) error

	// Description returns a human-readable description of the command.
	Description() string
}

// SnapshotCommand runs a function once and records the State before and
// after it. Redo restores the recorded result instead of running the
// function again.
type SnapshotCommand struct {
	Name  string
	apply func(st State) error

	before *Snapshot
	after  *Snapshot
}

// NewSnapshotCommand creates a snapshot command running apply.
func NewSnapshotCommand(name string, apply func(st State) error) *SnapshotCommand {
	return &SnapshotCommand{Name: name, apply: apply}
}

// Execute runs the function on first use and restores its result
// afterwards. A failing function leaves st as it was.
func (c *SnapshotCommand) Execute(st State) error {
	if c.after != nil {
		c.after.Restore(st)
		return nil
	}
	before := Capture(st)
	if err := c.apply(st); err != nil {
		before.Restore(st)
		return fmt.Errorf("%s: %w", c.Description(), err)
	}
	c.before, c.after = before, Capture(st)
	return nil
}

// Undo restores the State captured before the first execution.
func (c *SnapshotCommand) Undo(st State) error {
	if c.before == nil {
		return fmt.Errorf("undo %s: %w", c.Description(), ErrNotExecuted)
	}
	c.before.Restore(st)
	return nil
}

// Description returns the command name.
func (c *SnapshotCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	return "Edit"
}

// LengthDelta returns the change in document length, or 0 before the first
// execution.
func (c *SnapshotCommand) LengthDelta() int {
	if c.before == nil || c.after == nil {
		return 0
	}
	return c.after.Len() - c.before.Len()
}

// CompoundCommand is a sequence of commands recorded as one entry.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// Execute runs the commands in order. When one fails, those already run
// are undone.
func (c *CompoundCommand) Execute(st State) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(st); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(st)
			}
			return fmt.Errorf("%s step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverses the commands, last first.
func (c *CompoundCommand) Undo(st State) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(st); err != nil {
			return fmt.Errorf("undo %s step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the name of the compound command.
func (c *CompoundCommand) Description() string {
	return c.Name
}

// LengthDelta sums the deltas of the commands.
func (c *CompoundCommand) LengthDelta() int {
	total := 0
	for _, cmd := range c.Commands {
		if d, ok := cmd.(lengthDelta); ok {
			total += d.LengthDelta()
		}
	}
	return total
}
