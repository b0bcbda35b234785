package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-mlpipeline/pkg/pipeline"
)

func parseNode(t *testing.T, content string) *yaml.Node {
	t.Helper()

	doc := &yaml.Node{}
	require.NoError(t, yaml.Unmarshal([]byte(content), doc))
	require.Len(t, doc.Content, 1)

	return doc.Content[0]
}

func TestResolveExecuteStepsStringEqualsList(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"download,evaluate":           "[download, evaluate]",
		"preprocess":                  "[preprocess]",
		"download, preprocess ,":      "[download, preprocess]",
		"segregate,segregate,evaluate": "[segregate, evaluate]",
	}
	for str, list := range tests {
		fromString, err := pipeline.ResolveExecuteSteps(parseNode(t, str))
		require.NoError(t, err, str)

		fromList, err := pipeline.ResolveExecuteSteps(parseNode(t, list))
		require.NoError(t, err, list)

		assert.ElementsMatch(t, fromList.Names(), fromString.Names(), str)

		for _, name := range pipeline.StageNames() {
			assert.Equal(t, fromList.Contains(name), fromString.Contains(name), name)
		}
	}
}

func TestResolveExecuteStepsTypeMismatch(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"int":          "5",
		"bool":         "true",
		"null":         "null",
		"mapping":      "{download: true}",
		"nested list":  "[download, [preprocess]]",
		"list of maps": "[{name: download}]",
	}
	for name, content := range tests {
		_, err := pipeline.ResolveExecuteSteps(parseNode(t, content))
		require.ErrorIs(t, err, pipeline.ErrTypeMismatch, name)

		var typeErr *pipeline.TypeMismatchError
		require.ErrorAs(t, err, &typeErr, name)
		assert.Equal(t, pipeline.ExecuteStepsKey, typeErr.Key)
	}

	_, err := pipeline.ResolveExecuteSteps(nil)
	assert.ErrorIs(t, err, pipeline.ErrTypeMismatch)
}

func TestSelectionUnknown(t *testing.T) {
	t.Parallel()

	sel := pipeline.NewSelection("download", "train", "evaluate", "train")
	assert.Equal(t, []string{"download", "train", "evaluate"}, sel.Names())
	assert.Equal(t, []string{"train"}, sel.Unknown(pipeline.StageNames()...))
	assert.True(t, sel.Contains("evaluate"))
	assert.False(t, sel.Contains("preprocess"))
}

func TestArtifact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "raw_data.parquet:latest", pipeline.Latest("raw_data.parquet").String())
	assert.Equal(t, pipeline.Artifact{Name: "exercise_14/preprocessed_data.csv", Version: "v3"},
		pipeline.ParseArtifact("exercise_14/preprocessed_data.csv:v3"))
	assert.Equal(t, pipeline.Artifact{Name: "model_export"}, pipeline.ParseArtifact("model_export"))
	assert.Equal(t, "model_export", pipeline.ParseArtifact("model_export").String())
}
