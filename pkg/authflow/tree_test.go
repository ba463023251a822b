package authflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullTree = `
start: collect
nodes:
  collect:
    type: collector
    config:
      profile: true
      publicKey: true
      location: true
    next: jailbreak
  jailbreak:
    type: jailbreak
    config:
      scoreThreshold: "0.5"
    outcomes:
      "true": match
      "false": failure
  match:
    type: contextMatch
    outcomes:
      "true": nearby
      "false": save
  nearby:
    type: locationRange
    config:
      distanceKm: 100
    outcomes:
      true: save
      false: failure
  save:
    type: store
    next: success
`

func TestParseTree(t *testing.T) {
	tree, err := ParseTree([]byte(fullTree))
	require.NoError(t, err)

	assert.Equal(t, "collect", tree.Start)
	assert.Len(t, tree.Nodes, 5)
	assert.Equal(t, "jailbreak", tree.next("collect", ""))
	assert.Equal(t, "failure", tree.next("jailbreak", OutcomeFalse))
	assert.Equal(t, "save", tree.next("nearby", OutcomeTrue), "unquoted boolean keys decode as strings")
}

func TestTree_Validate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no start",
			yaml:    "nodes:\n  a:\n    type: store\n    next: success\n",
			wantErr: "no start node",
		},
		{
			name:    "undefined start",
			yaml:    "start: b\nnodes:\n  a:\n    type: store\n    next: success\n",
			wantErr: "start node \"b\" is not defined",
		},
		{
			name:    "unknown type",
			yaml:    "start: a\nnodes:\n  a:\n    type: fingerprint\n    next: success\n",
			wantErr: "unknown type",
		},
		{
			name:    "missing next",
			yaml:    "start: a\nnodes:\n  a:\n    type: collector\n",
			wantErr: "missing transition",
		},
		{
			name:    "undefined target",
			yaml:    "start: a\nnodes:\n  a:\n    type: store\n    next: nowhere\n",
			wantErr: "undefined node \"nowhere\"",
		},
		{
			name:    "decision with next",
			yaml:    "start: a\nnodes:\n  a:\n    type: contextMatch\n    next: success\n",
			wantErr: "use outcomes",
		},
		{
			name:    "decision missing outcome",
			yaml:    "start: a\nnodes:\n  a:\n    type: jailbreak\n    outcomes:\n      \"true\": success\n",
			wantErr: "outcomes must be exactly",
		},
		{
			name:    "decision unknown outcome",
			yaml:    "start: a\nnodes:\n  a:\n    type: jailbreak\n    outcomes:\n      \"true\": success\n      maybe: failure\n",
			wantErr: "missing outcome \"false\"",
		},
		{
			name:    "collector with outcomes",
			yaml:    "start: a\nnodes:\n  a:\n    type: collector\n    outcomes:\n      \"true\": success\n",
			wantErr: "use next",
		},
		{
			name:    "reserved name",
			yaml:    "start: a\nnodes:\n  a:\n    type: store\n    next: success\n  success:\n    type: store\n    next: failure\n",
			wantErr: "reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTree([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTree_InvalidYAML(t *testing.T) {
	_, err := ParseTree([]byte("start: [unclosed"))
	assert.Error(t, err)
}

func TestLoadTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullTree), 0644))

	tree, err := LoadTree(path)
	require.NoError(t, err)
	assert.Equal(t, "collect", tree.Start)

	_, err = LoadTree(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadTree_ShippedExample(t *testing.T) {
	tree, err := LoadTree(filepath.Join("..", "..", "config", "tree.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, tree.Nodes)
}

const jsoncTree = `{
  // remember every device that passes the jailbreak check
  "start": "collect",
  "nodes": {
    "collect": {"type": "collector", "config": {"profile": true}, "next": "jailbreak"},
    "jailbreak": {
      "type": "jailbreak",
      "config": {"scoreThreshold": "0.25"},
      "outcomes": {"true": "save", "false": "failure"},
    },
    "save": {"type": "store", "next": "success"}, /* trailing comma */
  },
}`

func TestLoadTree_JSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(jsoncTree), 0644))

	tree, err := LoadTree(path)
	require.NoError(t, err)

	assert.Equal(t, "collect", tree.Start)
	assert.Len(t, tree.Nodes, 3)
	assert.Equal(t, "save", tree.next("jailbreak", OutcomeTrue))

	_, err = ParseTreeJSONC([]byte(`{"start": `))
	assert.Error(t, err)
}
