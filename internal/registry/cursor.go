package registry

// Cursor tracks the current Group while a script is being collected,
// so nested `describe` calls push/pop without the script runtime
// needing to pass the enclosing Group explicitly.
type Cursor struct {
	root  *Group
	stack []*Group
}

// NewCursor creates a cursor rooted at an anonymous top-level Group,
// one per script file.
func NewCursor() *Cursor {
	root := &Group{}
	return &Cursor{root: root, stack: []*Group{root}}
}

// Root returns the top-level Group once collection is complete.
func (c *Cursor) Root() *Group { return c.root }

// Current returns the Group new children are currently appended to.
func (c *Cursor) Current() *Group { return c.stack[len(c.stack)-1] }

// PushDescribe opens a nested Group named name and makes it current.
func (c *Cursor) PushDescribe(name string) *Group {
	g := c.Current().AddGroup(name)
	c.stack = append(c.stack, g)
	return g
}

// Pop closes the innermost open Group, matching a describe body's
// return to its caller.
func (c *Cursor) Pop() {
	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// AddIt appends a Case to the current Group.
func (c *Cursor) AddIt(name string, cb CaseFunc) *Case {
	return c.Current().AddCase(name, cb)
}
