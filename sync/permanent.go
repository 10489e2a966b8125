package sync

import (
	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/share"
)

// bindPermanentFolders associates each local permanent folder with the
// remote folder carrying its tag and queues it for traversal.
func (r *run) bindPermanentFolders() error {
	for _, kind := range bookmarks.PermanentKinds {
		tag := share.TagFor(kind)
		mandatory := kind != bookmarks.TypeMobile || r.a.cfg.ExpectMobileFolder

		remote, err := r.tx.LookupByTag(tag)
		if errors.IsNotFoundError(err) {
			if !mandatory {
				r.log.Debugw("Optional permanent folder absent", logger.FieldTag, tag)
				continue
			}
			err = errors.WithDetailf(errors.Wrap(err, "server did not create the top-level bookmark folders"), "tag: %s", tag)
			return errors.MarkUnrecoverable(err, "bind permanent folders", 0)
		}
		if err != nil {
			return errors.MarkUnrecoverable(err, "bind permanent folders", 0)
		}

		local := r.a.model.PermanentNode(kind)
		if local == nil {
			err := errors.NewPreconditionError("local model has no %s folder", kind)
			return errors.MarkUnrecoverable(err, "bind permanent folders", remote.ID)
		}
		if _, bound := r.a.assoc.remoteOf(local.ID); !bound {
			if err := r.associate(local, remote); err != nil {
				return errors.MarkUnrecoverable(err, "bind permanent folders", remote.ID)
			}
		}

		r.mc.push(remote.ID)
		r.mc.roots = append(r.mc.roots, local)
	}
	return nil
}

// updatePermanentVisibility shows exactly the permanent folders that have
// a remote counterpart.
func (r *run) updatePermanentVisibility() {
	for _, kind := range bookmarks.PermanentKinds {
		local := r.a.model.PermanentNode(kind)
		if local == nil {
			continue
		}
		_, bound := r.a.assoc.remoteOf(local.ID)
		r.a.model.SetPermanentNodeVisible(kind, bound)
	}
}
