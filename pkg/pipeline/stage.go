package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-mlpipeline/pkg/config"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

// Stage names, in execution order.
const (
	StageDownload     = "download"
	StagePreprocess   = "preprocess"
	StageCheckData    = "check_data"
	StageSegregate    = "segregate"
	StageRandomForest = "random_forest"
	StageEvaluate     = "evaluate"
)

// Artifact names agreed between producing and consuming stages.
const (
	RawDataArtifact          = "raw_data.parquet"
	PreprocessedDataArtifact = "preprocessed_data.csv"
	TrainDataArtifact        = "data_train.csv"
	TestDataArtifact         = "data_test.csv"
	SegregateArtifactRoot    = "data"
)

// ModelConfigFileName is the file the random forest configuration is serialized to,
// relative to the working directory.
const ModelConfigFileName = "random_forest_config.yml"

const modelConfigKey = "random_forest_pipeline"

// Stage is a step of the pipeline.
type Stage struct {
	Name string
	// Build returns the parameters and declared artifacts of the stage.
	Build func(cfg *config.Config, workDir string) (*model.StageInfo, error)
	// Prepare, when set, runs right before the stage is invoked.
	Prepare func(cfg *config.Config, info *model.StageInfo) error
}

// Stages returns the stages of the pipeline in execution order.
func Stages() []*Stage {
	return []*Stage{
		{Name: StageDownload, Build: buildDownload},
		{Name: StagePreprocess, Build: buildPreprocess},
		{Name: StageCheckData, Build: buildCheckData},
		{Name: StageSegregate, Build: buildSegregate},
		{Name: StageRandomForest, Build: buildRandomForest, Prepare: writeModelConfig},
		{Name: StageEvaluate, Build: buildEvaluate},
	}
}

// StageNames returns the names of the stages in execution order.
func StageNames() []string {
	stages := Stages()
	names := make([]string, len(stages))

	for i, stage := range stages {
		names[i] = stage.Name
	}

	return names
}

// params collects parameters and keeps the first lookup error.
type params struct {
	cfg    *config.Config
	values model.Parameters
	err    error
}

func newParams(cfg *config.Config) *params {
	return &params{cfg: cfg, values: model.Parameters{}}
}

func (p *params) literal(name string, value any) *params {
	p.values[name] = value

	return p
}

func (p *params) fromConfig(name, key string) *params {
	if p.err != nil {
		return p
	}

	value, err := p.cfg.Value(key)
	if err != nil {
		p.err = errors.Wrapf(err, "unable to get parameter %s", name)

		return p
	}

	p.values[name] = value

	return p
}

func (p *params) stage(inputs, outputs []string) (*model.StageInfo, error) {
	if p.err != nil {
		return nil, p.err
	}

	return &model.StageInfo{
		Parameters: p.values,
		Inputs:     inputs,
		Outputs:    outputs,
	}, nil
}

func buildDownload(cfg *config.Config, _ string) (*model.StageInfo, error) {
	return newParams(cfg).
		fromConfig("file_url", "data.file_url").
		literal("artifact_name", RawDataArtifact).
		literal("artifact_type", "raw_data").
		literal("artifact_description", "Data as downloaded").
		stage(nil, []string{RawDataArtifact})
}

func buildPreprocess(cfg *config.Config, _ string) (*model.StageInfo, error) {
	input := Latest(RawDataArtifact).String()

	return newParams(cfg).
		literal("input_artifact", input).
		literal("artifact_name", PreprocessedDataArtifact).
		literal("artifact_type", "preprocessed_data").
		literal("artifact_description", "Data with preprocessing applied").
		stage([]string{input}, []string{PreprocessedDataArtifact})
}

// The reference dataset comes from an earlier run, it is not an input in the lineage sense.
func buildCheckData(cfg *config.Config, _ string) (*model.StageInfo, error) {
	sample := Latest(PreprocessedDataArtifact).String()

	return newParams(cfg).
		fromConfig("reference_artifact", "data.reference_dataset").
		literal("sample_artifact", sample).
		fromConfig("ks_alpha", "data.ks_alpha").
		stage([]string{sample}, nil)
}

func buildSegregate(cfg *config.Config, _ string) (*model.StageInfo, error) {
	input := Latest(PreprocessedDataArtifact).String()

	return newParams(cfg).
		literal("input_artifact", input).
		literal("artifact_root", SegregateArtifactRoot).
		literal("artifact_type", "segregated_data").
		fromConfig("test_size", "data.test_size").
		fromConfig("stratify", "data.stratify").
		stage([]string{input}, []string{TrainDataArtifact, TestDataArtifact})
}

func buildRandomForest(cfg *config.Config, workDir string) (*model.StageInfo, error) {
	modelConfig, err := filepath.Abs(filepath.Join(workDir, ModelConfigFileName))
	if err != nil {
		return nil, errors.Wrap(err, "unable to get model config path")
	}

	exportArtifact, err := cfg.String(modelConfigKey + ".export_artifact")
	if err != nil {
		return nil, errors.Wrap(err, "unable to get parameter export_artifact")
	}

	trainData := Latest(TrainDataArtifact).String()

	return newParams(cfg).
		literal("train_data", trainData).
		literal("model_config", modelConfig).
		literal("export_artifact", exportArtifact).
		fromConfig("random_seed", "main.random_seed").
		fromConfig("val_size", "data.test_size").
		fromConfig("stratify", "data.stratify").
		stage([]string{trainData}, []string{exportArtifact})
}

func buildEvaluate(cfg *config.Config, _ string) (*model.StageInfo, error) {
	exportArtifact, err := cfg.String(modelConfigKey + ".export_artifact")
	if err != nil {
		return nil, errors.Wrap(err, "unable to get parameter model_export")
	}

	modelExport := Latest(exportArtifact).String()
	testData := Latest(TestDataArtifact).String()

	return newParams(cfg).
		literal("model_export", modelExport).
		literal("test_data", testData).
		stage([]string{modelExport, testData}, nil)
}

// writeModelConfig serializes the random forest configuration where the stage expects it.
// The file is left in place after the run.
func writeModelConfig(cfg *config.Config, info *model.StageInfo) error {
	content, err := cfg.Marshal(modelConfigKey)
	if err != nil {
		return errors.Wrap(err, "unable to serialize model config")
	}

	path := info.Parameters.Format("model_config")

	//nolint:gosec // the stage runs in another process and must be able to read the file.
	err = os.WriteFile(path, content, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to write model config %s", path)
	}

	return nil
}
