package websockets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	logger "github.com/Bparsons0904/goLogger"
)

func TestManager_ClientCount(t *testing.T) {
	manager := &Manager{
		clients: make(map[string]*client),
		log:     logger.New("websockets"),
	}

	assert.Equal(t, 0, manager.ClientCount())

	manager.clients["a"] = &client{id: "a"}
	manager.clients["b"] = &client{id: "b"}
	assert.Equal(t, 2, manager.ClientCount())

	delete(manager.clients, "a")
	assert.Equal(t, 1, manager.ClientCount())
}
