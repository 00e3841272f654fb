package config

import "strings"

// BuildEnv selects which set of documents a request reads and writes.
type BuildEnv string

const (
	BuildEnvDev   BuildEnv = "DEV"
	BuildEnvStage BuildEnv = "STAGE"
	BuildEnvProd  BuildEnv = "PROD"
	BuildEnvTest  BuildEnv = "TEST"
)

// ParseBuildEnv normalises raw; unknown or empty values map to DEV.
func ParseBuildEnv(raw string) BuildEnv {
	switch BuildEnv(strings.ToUpper(strings.TrimSpace(raw))) {
	case BuildEnvStage:
		return BuildEnvStage
	case BuildEnvProd:
		return BuildEnvProd
	case BuildEnvTest:
		return BuildEnvTest
	default:
		return BuildEnvDev
	}
}

// CollectionPrefix returns the document collection prefix. There is no
// separate stage dataset, so STAGE reads production documents.
func (e BuildEnv) CollectionPrefix() string {
	switch e {
	case BuildEnvStage, BuildEnvProd:
		return "prod_"
	default:
		return "dev_"
	}
}

// Collection prefixes name, e.g. "azure_data" -> "dev_azure_data".
func (e BuildEnv) Collection(name string) string {
	return e.CollectionPrefix() + name
}
