package machine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcodeStringCoversEveryValue(t *testing.T) {
	for op := Opcode(0); op < maxOpcode; op++ {
		require.NotEmpty(t, op.String(), "opcode %d has no name", op)
	}
}

func TestOpcodeStringIllegalValue(t *testing.T) {
	require.Equal(t, fmt.Sprintf("illegal op (%d)", maxOpcode), maxOpcode.String())
}
