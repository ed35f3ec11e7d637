package dashboard

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
)

// Fanout passes each change to every notifier in order
type Fanout []Notifier

func (f Fanout) RosterChanged(ctx context.Context, ev models.ChangeEvent) {
	for _, n := range f {
		if n != nil {
			n.RosterChanged(ctx, ev)
		}
	}
}
