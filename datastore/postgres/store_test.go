package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/datastore"
	"github.com/quay/upgradeplan/datastore/storetest"
	"github.com/quay/upgradeplan/test"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	dsn := test.PostgresDSN(t)
	storetest.Run(ctx, t, func(t *testing.T) datastore.Store {
		s, err := Connect(ctx, dsn)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() {
			if _, err := s.pool.Exec(ctx, `TRUNCATE `+table+`;`); err != nil {
				t.Error(err)
			}
			s.Close(ctx)
		})
		return s
	})
}

func TestConnectBadDSN(t *testing.T) {
	ctx := context.Background()
	_, err := Connect(ctx, "postgres://%zz")
	if !errors.Is(err, upgradeplan.ErrInvalid) {
		t.Errorf("got: %v, want: %v", err, upgradeplan.ErrInvalid)
	}
	if !errors.Is(err, upgradeplan.ErrPermanent) {
		t.Errorf("got: %v, want: %v", err, upgradeplan.ErrPermanent)
	}
}
