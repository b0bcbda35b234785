package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

func TestParametersFormat(t *testing.T) {
	t.Parallel()

	params := model.Parameters{
		"stratify":     nil,
		"string":       "genre",
		"artifact":     "raw_data.parquet:latest",
		"int":          42,
		"true":         true,
		"false":        false,
		"round":        1.0,
		"ratio":        0.3,
		"alpha":        0.05,
		"small":        0.00001,
		"limit":        0.0001,
		"large":        1e16,
		"below_large":  123456789012345.0,
		"zero":         0.0,
		"negative":     -2.5,
		"infinity":     math.Inf(1),
		"not_a_number": math.NaN(),
		"float32":      float32(0.5),
	}

	expected := map[string]string{
		"stratify":     "None",
		"string":       "genre",
		"artifact":     "raw_data.parquet:latest",
		"int":          "42",
		"true":         "True",
		"false":        "False",
		"round":        "1.0",
		"ratio":        "0.3",
		"alpha":        "0.05",
		"small":        "1e-05",
		"limit":        "0.0001",
		"large":        "1e+16",
		"below_large":  "123456789012345.0",
		"zero":         "0.0",
		"negative":     "-2.5",
		"infinity":     "inf",
		"not_a_number": "nan",
		"float32":      "0.5",
		"missing":      "None",
	}
	for key, str := range expected {
		assert.Equal(t, str, params.Format(key), key)
	}
}

func TestParametersKeys(t *testing.T) {
	t.Parallel()

	params := model.Parameters{"test_size": 0.3, "input_artifact": "a", "stratify": nil}
	assert.Equal(t, []string{"input_artifact", "stratify", "test_size"}, params.Keys())
}
