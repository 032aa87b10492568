package entity

// Comune municipio italiano (elenco ISTAT) con la sigla de su provincia.
type Comune struct {
	ISTATCode string `json:"codiceIstat"`
	Name      string `json:"denominazione"`
	Province  string `json:"siglaProvincia"`
}
