package memory_test

import (
	"testing"

	"github.com/cicerone-chat/cicerone/internal/adapters/memory"
	"github.com/cicerone-chat/cicerone/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunDefinitionStoreContract(t, memory.New())
}
