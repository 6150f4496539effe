package room

import (
	"strings"

	"github.com/google/uuid"
)

// EntryKind distinguishes files from directories.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// Entry is one node in a room's shared file tree. The tree is an arena of
// entries addressed by id; parent/child are id relationships, never pointers.
type Entry struct {
	ID       string
	Name     string
	Kind     EntryKind
	Content  string   // files only
	ParentID string   // empty for the root
	ChildIDs []string // directories only, creation order
	Open     bool     // directories only, shared UI expansion state
}

// Tree is a room's authoritative file-system tree. It is not safe for
// concurrent use; the owning Room serializes access.
type Tree struct {
	entries map[string]*Entry
	rootID  string
}

// NewTree returns a tree holding a single open root directory.
func NewTree() *Tree {
	root := &Entry{
		ID:   uuid.NewString(),
		Name: "root",
		Kind: KindDirectory,
		Open: true,
	}
	return &Tree{entries: map[string]*Entry{root.ID: root}, rootID: root.ID}
}

// RootID returns the id of the root directory.
func (t *Tree) RootID() string { return t.rootID }

// Entry looks up an entry by id.
func (t *Tree) Entry(id string) (*Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// Len reports the number of entries, root included.
func (t *Tree) Len() int { return len(t.entries) }

// MutationKind tags a tree mutation request.
type MutationKind string

const (
	MutateCreateFile      MutationKind = "create-file"
	MutateCreateDirectory MutationKind = "create-directory"
	MutateDeleteEntry     MutationKind = "delete-entry"
	MutateRenameEntry     MutationKind = "rename-entry"
	MutateUpdateContent   MutationKind = "update-file-content"
	MutateToggleOpen      MutationKind = "toggle-directory-open"
)

// Mutation is a single validated change request against a tree.
type Mutation struct {
	Kind     MutationKind `json:"kind"`
	TargetID string       `json:"targetId,omitempty"`
	ParentID string       `json:"parentId,omitempty"`
	Name     string       `json:"name,omitempty"`
	Content  string       `json:"content,omitempty"`
}

// Change is the delta produced by a successful mutation; it is what other
// members receive instead of a full tree resend.
type Change struct {
	Kind       MutationKind `json:"kind"`
	Entry      *EntryNode   `json:"entry,omitempty"`      // creations
	TargetID   string       `json:"targetId,omitempty"`   // everything else
	ParentID   string       `json:"parentId,omitempty"`   // creations + deletions
	Name       string       `json:"name,omitempty"`       // renames
	Content    string       `json:"content,omitempty"`    // content updates
	RemovedIDs []string     `json:"removedIds,omitempty"` // deletions, subtree included
	Open       *bool        `json:"isOpen,omitempty"`     // toggle result, present for toggles only
}

// Apply validates m against the tree invariants and applies it atomically:
// either the tree advances and a Change is returned, or the tree is untouched
// and the error carries an ErrorKind.
func (t *Tree) Apply(m Mutation) (Change, error) {
	switch m.Kind {
	case MutateCreateFile:
		return t.create(m, KindFile)
	case MutateCreateDirectory:
		return t.create(m, KindDirectory)
	case MutateDeleteEntry:
		return t.delete(m)
	case MutateRenameEntry:
		return t.rename(m)
	case MutateUpdateContent:
		return t.updateContent(m)
	case MutateToggleOpen:
		return t.toggleOpen(m)
	default:
		return Change{}, newErr(ErrInvalidInput, "unknown mutation kind %q", m.Kind)
	}
}

func (t *Tree) create(m Mutation, kind EntryKind) (Change, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return Change{}, newErr(ErrInvalidInput, "entry name is required")
	}
	parentID := m.ParentID
	if parentID == "" {
		parentID = t.rootID
	}
	parent, ok := t.entries[parentID]
	if !ok {
		return Change{}, newErr(ErrNotFound, "parent %s does not exist", parentID)
	}
	if parent.Kind != KindDirectory {
		return Change{}, newErr(ErrInvalidTarget, "parent %q is a file", parent.Name)
	}
	if t.childNamed(parent, name) != "" {
		return Change{}, newErr(ErrNameConflict, "%q already exists in %q", name, parent.Name)
	}

	e := &Entry{
		ID:       uuid.NewString(),
		Name:     name,
		Kind:     kind,
		ParentID: parent.ID,
		Content:  m.Content,
	}
	if kind == KindDirectory {
		e.Content = ""
	}
	t.entries[e.ID] = e
	parent.ChildIDs = append(parent.ChildIDs, e.ID)

	return Change{Kind: m.Kind, Entry: t.node(e), ParentID: parent.ID}, nil
}

func (t *Tree) delete(m Mutation) (Change, error) {
	e, ok := t.entries[m.TargetID]
	if !ok {
		return Change{}, newErr(ErrNotFound, "entry %s does not exist", m.TargetID)
	}
	if e.ID == t.rootID {
		return Change{}, newErr(ErrInvalidTarget, "the root directory cannot be deleted")
	}

	removed := t.collect(e.ID, nil)
	for _, id := range removed {
		delete(t.entries, id)
	}
	parent := t.entries[e.ParentID]
	parent.ChildIDs = remove(parent.ChildIDs, e.ID)

	return Change{Kind: m.Kind, TargetID: e.ID, ParentID: parent.ID, RemovedIDs: removed}, nil
}

func (t *Tree) rename(m Mutation) (Change, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return Change{}, newErr(ErrInvalidInput, "entry name is required")
	}
	e, ok := t.entries[m.TargetID]
	if !ok {
		return Change{}, newErr(ErrNotFound, "entry %s does not exist", m.TargetID)
	}
	if e.ID == t.rootID {
		return Change{}, newErr(ErrInvalidTarget, "the root directory cannot be renamed")
	}
	parent := t.entries[e.ParentID]
	if sib := t.childNamed(parent, name); sib != "" && sib != e.ID {
		return Change{}, newErr(ErrNameConflict, "%q already exists in %q", name, parent.Name)
	}

	e.Name = name
	return Change{Kind: m.Kind, TargetID: e.ID, Name: name}, nil
}

func (t *Tree) updateContent(m Mutation) (Change, error) {
	e, ok := t.entries[m.TargetID]
	if !ok {
		return Change{}, newErr(ErrNotFound, "entry %s does not exist", m.TargetID)
	}
	if e.Kind != KindFile {
		return Change{}, newErr(ErrInvalidTarget, "%q is a directory", e.Name)
	}

	// Whole-snapshot replacement: the last write serialized here wins.
	e.Content = m.Content
	return Change{Kind: m.Kind, TargetID: e.ID, Content: m.Content}, nil
}

func (t *Tree) toggleOpen(m Mutation) (Change, error) {
	e, ok := t.entries[m.TargetID]
	if !ok {
		return Change{}, newErr(ErrNotFound, "entry %s does not exist", m.TargetID)
	}
	if e.Kind != KindDirectory {
		return Change{}, newErr(ErrInvalidTarget, "%q is a file", e.Name)
	}

	e.Open = !e.Open
	open := e.Open
	return Change{Kind: m.Kind, TargetID: e.ID, Open: &open}, nil
}

// childNamed returns the id of parent's child called name, or "".
func (t *Tree) childNamed(parent *Entry, name string) string {
	for _, id := range parent.ChildIDs {
		if c := t.entries[id]; c != nil && c.Name == name {
			return id
		}
	}
	return ""
}

// collect appends id and every descendant of id to out, depth-first.
func (t *Tree) collect(id string, out []string) []string {
	out = append(out, id)
	if e := t.entries[id]; e != nil {
		for _, child := range e.ChildIDs {
			out = t.collect(child, out)
		}
	}
	return out
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// EntryNode is the nested, JSON-facing form of an entry used in sync payloads
// and creation deltas.
type EntryNode struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Kind     EntryKind    `json:"kind"`
	Content  string       `json:"content,omitempty"`
	Open     bool         `json:"isOpen,omitempty"`
	Children []*EntryNode `json:"children,omitempty"`
}

// Snapshot returns a deep copy of the tree rooted at the root directory.
func (t *Tree) Snapshot() *EntryNode {
	return t.node(t.entries[t.rootID])
}

func (t *Tree) node(e *Entry) *EntryNode {
	n := &EntryNode{ID: e.ID, Name: e.Name, Kind: e.Kind, Content: e.Content, Open: e.Open}
	for _, id := range e.ChildIDs {
		if c := t.entries[id]; c != nil {
			n.Children = append(n.Children, t.node(c))
		}
	}
	return n
}
