package pmml

import "encoding/xml"

// The document types below mirror the subset of PMML 4.x consumed here.
// Element names match regardless of the declared PMML namespace.

type document struct {
	XMLName         xml.Name         `xml:"PMML"`
	Version         string           `xml:"version,attr"`
	Header          header           `xml:"Header"`
	DataDictionary  dataDictionary   `xml:"DataDictionary"`
	RegressionModel *regressionModel `xml:"RegressionModel"`
	// Other model elements are detected so they can be rejected clearly.
	TreeModel          *struct{} `xml:"TreeModel"`
	MiningModel        *struct{} `xml:"MiningModel"`
	NeuralNetwork      *struct{} `xml:"NeuralNetwork"`
	GeneralRegression  *struct{} `xml:"GeneralRegressionModel"`
	SupportVectorModel *struct{} `xml:"SupportVectorMachineModel"`
}

type header struct {
	Description string      `xml:"description,attr"`
	Application application `xml:"Application"`
}

type application struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`
}

type dataDictionary struct {
	Fields []dataField `xml:"DataField"`
}

type dataField struct {
	Name     string  `xml:"name,attr"`
	OpType   string  `xml:"optype,attr"`
	DataType string  `xml:"dataType,attr"`
	Values   []value `xml:"Value"`
}

type value struct {
	Value string `xml:"value,attr"`
}

type regressionModel struct {
	ModelName           string            `xml:"modelName,attr"`
	FunctionName        string            `xml:"functionName,attr"`
	NormalizationMethod string            `xml:"normalizationMethod,attr"`
	MiningSchema        miningSchema      `xml:"MiningSchema"`
	Output              *output           `xml:"Output"`
	Tables              []regressionTable `xml:"RegressionTable"`
}

type miningSchema struct {
	Fields []miningField `xml:"MiningField"`
}

type miningField struct {
	Name                    string `xml:"name,attr"`
	UsageType               string `xml:"usageType,attr"`
	MissingValueReplacement string `xml:"missingValueReplacement,attr"`
}

type output struct {
	Fields []outputField `xml:"OutputField"`
}

type outputField struct {
	Name    string `xml:"name,attr"`
	Feature string `xml:"feature,attr"`
	Value   string `xml:"value,attr"`
}

type regressionTable struct {
	Intercept            float64                `xml:"intercept,attr"`
	TargetCategory       string                 `xml:"targetCategory,attr"`
	NumericPredictors    []numericPredictor     `xml:"NumericPredictor"`
	CategoricalPredictor []categoricalPredictor `xml:"CategoricalPredictor"`
	PredictorTerms       []struct{}             `xml:"PredictorTerm"`
}

type numericPredictor struct {
	Name        string  `xml:"name,attr"`
	Coefficient float64 `xml:"coefficient,attr"`
	Exponent    *int    `xml:"exponent,attr"`
}

type categoricalPredictor struct {
	Name string `xml:"name,attr"`
}
