package cli

import (
	"os"
	"testing"

	"github.com/cardiopulse/cardiopulse/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logging.SetDefaultCLILogger("error")
	os.Exit(m.Run())
}

func TestNewApp(t *testing.T) {
	app := newApp()
	assert.Equal(t, appName, app.Name)

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, names,
		[]string{"assess", "import", "query", "auth", "server", "reset"})
}

func TestEncodeFormats(t *testing.T) {
	defer func() { outputFormat = formatJSON }()

	v := map[string]string{"tier": "low"}
	assert.NoError(t, encode(v))

	outputFormat = formatYAML
	assert.NoError(t, encode(v))
}
