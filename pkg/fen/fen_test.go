package fen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenlang/fen/internal/config"
	"github.com/fenlang/fen/internal/vm"
	"github.com/fenlang/fen/pkg/fen"
)

func TestEngineRunReturnsValue(t *testing.T) {
	e := fen.New()
	m, v, err := e.Run("t.fen", `func main() -> int64 { return 6 * 7; }`)
	require.NoError(t, err)
	assert.Equal(t, vm.IntValue(42), v)
	assert.Equal(t, "42", m.Format(v))
}

func TestEngineRunUsesStdlib(t *testing.T) {
	e := fen.New()
	_, v, err := e.Run("t.fen", `import "math";
	func main() -> float64 { return sqrt(9.0); }`)
	require.NoError(t, err)
	assert.Equal(t, vm.FloatValue(3), v)
}

func TestEngineCompileSurfacesParseErrors(t *testing.T) {
	e := fen.New()
	_, err := e.Compile("t.fen", `func main( {`)
	require.Error(t, err)
}

func TestEngineRunRespectsCallDepthLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxCallDepth = 4
	e := fen.New(fen.WithConfig(cfg))
	_, _, err := e.Run("t.fen", `
	func loop(n: int64) -> int64 { return loop(n + 1); }
	func main() -> int64 { return loop(0); }
	`)
	require.Error(t, err)
}
