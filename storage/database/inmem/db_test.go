package inmemdb_test

import (
	"testing"

	"github.com/trezcool/ecole/storage"
	inmemdb "github.com/trezcool/ecole/storage/database/inmem"
	"github.com/trezcool/ecole/storage/database/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *storage.Store {
		return inmemdb.NewStore()
	})
}
