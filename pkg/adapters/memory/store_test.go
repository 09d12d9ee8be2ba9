package memory_test

import (
	"testing"

	"github.com/parleylabs/parley/pkg/adapters/memory"
	"github.com/parleylabs/parley/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}
