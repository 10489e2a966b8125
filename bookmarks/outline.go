package bookmarks

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/teranos/marksync/errors"
)

// Outline is a portable description of a bookmark hierarchy, used to seed
// either tree from YAML and to print them back out.
//
//	bookmark_bar:
//	  - title: Go
//	    url: https://go.dev
//	  - title: Reading
//	    children:
//	      - {title: Blog, url: https://go.dev/blog}
//	other: []
type Outline struct {
	BookmarkBar []OutlineNode `yaml:"bookmark_bar"`
	Other       []OutlineNode `yaml:"other"`
	Mobile      []OutlineNode `yaml:"mobile,omitempty"`
}

// OutlineNode is one url or folder. A node is a folder when it has
// children or sets folder: true.
type OutlineNode struct {
	Title    string        `yaml:"title"`
	URL      string        `yaml:"url,omitempty"`
	Folder   bool          `yaml:"folder,omitempty"`
	Children []OutlineNode `yaml:"children,omitempty"`
}

// IsFolder reports whether the outline node describes a folder.
func (n OutlineNode) IsFolder() bool {
	return n.Folder || len(n.Children) > 0
}

// Section returns the outline entries for a permanent folder kind.
func (o *Outline) Section(kind NodeType) []OutlineNode {
	switch kind {
	case TypeBookmarkBar:
		return o.BookmarkBar
	case TypeOther:
		return o.Other
	case TypeMobile:
		return o.Mobile
	}
	return nil
}

// ParseOutline decodes a YAML outline.
func ParseOutline(r io.Reader) (*Outline, error) {
	var o Outline
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.Wrap(errors.ErrInvalidRequest, err.Error()), "parse outline")
	}
	return &o, nil
}

// Import appends the outline's entries to the matching permanent folders.
func (m *Model) Import(o *Outline) (int, error) {
	created := 0
	for _, kind := range PermanentKinds {
		parent := m.PermanentNode(kind)
		n, err := m.importNodes(parent, o.Section(kind))
		created += n
		if err != nil {
			return created, errors.Wrapf(err, "import %s", kind)
		}
		if kind == TypeMobile && parent.ChildCount() > 0 {
			m.SetPermanentNodeVisible(TypeMobile, true)
		}
	}
	return created, nil
}

func (m *Model) importNodes(parent *Node, entries []OutlineNode) (int, error) {
	created := 0
	for _, e := range entries {
		n, err := m.Create(parent, parent.ChildCount(), e.Title, e.URL, e.IsFolder())
		if err != nil {
			return created, err
		}
		created++
		if len(e.Children) > 0 {
			sub, err := m.importNodes(n, e.Children)
			created += sub
			if err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

// Outline exports the current tree.
func (m *Model) Outline() *Outline {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &Outline{
		BookmarkBar: outlineOf(m.permanent[TypeBookmarkBar]),
		Other:       outlineOf(m.permanent[TypeOther]),
		Mobile:      outlineOf(m.permanent[TypeMobile]),
	}
}

func outlineOf(parent *Node) []OutlineNode {
	out := make([]OutlineNode, 0, parent.ChildCount())
	for _, c := range parent.children {
		entry := OutlineNode{Title: c.Title, URL: c.URL}
		if c.IsFolder() {
			entry.Folder = len(c.children) == 0
			entry.Children = outlineOf(c)
		}
		out = append(out, entry)
	}
	return out
}
