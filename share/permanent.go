package share

import (
	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
)

var permanentTitles = map[string]string{
	TagBookmarkBar: "Bookmarks bar",
	TagOther:       "Other bookmarks",
	TagMobile:      "Mobile bookmarks",
}

// TagFor maps a local permanent folder kind to its remote tag.
func TagFor(kind bookmarks.NodeType) string {
	switch kind {
	case bookmarks.TypeBookmarkBar:
		return TagBookmarkBar
	case bookmarks.TypeOther:
		return TagOther
	case bookmarks.TypeMobile:
		return TagMobile
	}
	return ""
}

// EnsurePermanentFolders creates the tagged root and permanent folders the
// server would normally provide. The mobile folder is only created when
// includeMobile is set. Existing folders are left alone.
func (t *Tx) EnsurePermanentFolders(includeMobile bool) (int, error) {
	created := 0
	root, err := t.LookupByTag(TagRoot)
	if errors.IsNotFoundError(err) {
		id, err := t.insert(0, 0, Entry{Title: "Bookmarks", IsFolder: true}, TagRoot)
		if err != nil {
			return created, errors.Wrap(err, "create remote root")
		}
		created++
		root = &Node{ID: id, IsFolder: true, Tag: TagRoot}
	} else if err != nil {
		return created, err
	}

	tags := []string{TagBookmarkBar, TagOther}
	if includeMobile {
		tags = append(tags, TagMobile)
	}
	for _, tag := range tags {
		_, err := t.LookupByTag(tag)
		if err == nil {
			continue
		}
		if !errors.IsNotFoundError(err) {
			return created, err
		}
		if _, err := t.insert(root.ID, -1, Entry{Title: permanentTitles[tag], IsFolder: true}, tag); err != nil {
			return created, errors.Wrapf(err, "create remote folder %s", tag)
		}
		created++
	}
	return created, nil
}

// ImportOutline appends outline entries under the matching permanent
// folders. Sections whose folder does not exist are rejected.
func (t *Tx) ImportOutline(o *bookmarks.Outline) (int, error) {
	created := 0
	for _, kind := range bookmarks.PermanentKinds {
		section := o.Section(kind)
		if len(section) == 0 {
			continue
		}
		folder, err := t.LookupByTag(TagFor(kind))
		if err != nil {
			return created, errors.Wrapf(err, "import %s", kind)
		}
		n, err := t.importNodes(folder.ID, section)
		created += n
		if err != nil {
			return created, errors.Wrapf(err, "import %s", kind)
		}
	}
	return created, nil
}

func (t *Tx) importNodes(parentID int64, nodes []bookmarks.OutlineNode) (int, error) {
	created := 0
	for _, n := range nodes {
		id, err := t.Create(parentID, -1, Entry{Title: n.Title, URL: n.URL, IsFolder: n.IsFolder()})
		if err != nil {
			return created, err
		}
		created++
		if len(n.Children) > 0 {
			c, err := t.importNodes(id, n.Children)
			created += c
			if err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

// Outline renders the remote tree in outline form. Missing permanent
// folders produce empty sections.
func (t *Tx) Outline() (*bookmarks.Outline, error) {
	o := &bookmarks.Outline{}
	for _, kind := range bookmarks.PermanentKinds {
		folder, err := t.LookupByTag(TagFor(kind))
		if errors.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes, err := t.outlineNodes(folder.ID)
		if err != nil {
			return nil, err
		}
		switch kind {
		case bookmarks.TypeBookmarkBar:
			o.BookmarkBar = nodes
		case bookmarks.TypeOther:
			o.Other = nodes
		case bookmarks.TypeMobile:
			o.Mobile = nodes
		}
	}
	return o, nil
}

func (t *Tx) outlineNodes(parentID int64) ([]bookmarks.OutlineNode, error) {
	children, err := t.Children(parentID)
	if err != nil {
		return nil, err
	}
	out := make([]bookmarks.OutlineNode, 0, len(children))
	for _, c := range children {
		n := bookmarks.OutlineNode{Title: c.ClientTitle(), URL: c.URL, Folder: c.IsFolder}
		if c.IsFolder {
			if n.Children, err = t.outlineNodes(c.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, nil
}
