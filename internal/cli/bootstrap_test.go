package cli

import (
	"testing"

	"github.com/example/railctl/internal/ctxutil"
)

func TestDetectAndStoreActor(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		envOp    string
		user     string
		want     string
	}{
		{name: "flag wins", explicit: "op-1", envOp: "op-2", user: "alice", want: "op-1"},
		{name: "env operator", envOp: "op-2", user: "alice", want: "op-2"},
		{name: "falls back to user", user: "alice", want: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RAILCTL_OPERATOR", tt.envOp)
			t.Setenv("USER", tt.user)

			DetectAndStoreActor(tt.explicit)

			if got := GetActorID(); got != tt.want {
				t.Errorf("GetActorID() = %q, want %q", got, tt.want)
			}
			if got := ctxutil.ActorFromContext(NewContext()); got != tt.want {
				t.Errorf("actor in context = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewContext_NoActor(t *testing.T) {
	globalActorID = ""
	if got := ctxutil.ActorFromContext(NewContext()); got != "" {
		t.Errorf("expected no actor, got %q", got)
	}
}
