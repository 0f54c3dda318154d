package subcmd

import (
	"context"
	"testing"

	"github.com/easygraphs/easygraphs-device/config"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	noop := func(context.Context, *log2.Log, *config.Config) error { return nil }
	mods := []Mod{{Name: "cycle", Main: noop}, {Name: "repl", Main: noop}}

	m, err := Parse("repl", mods)
	require.NoError(t, err)
	assert.Equal(t, "repl", m.Name)

	_, err = Parse("", mods)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle, repl")

	_, err = Parse("vend", mods)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	assert.Panics(t, func() { _, _ = Parse("x", []Mod{{Main: noop}}) })
}
