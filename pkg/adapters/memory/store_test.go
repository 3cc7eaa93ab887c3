package memory_test

import (
	"testing"

	"github.com/Lenny-the-burger/hlg/pkg/adapters/memory"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunConversationStoreContract(t, store)
}
