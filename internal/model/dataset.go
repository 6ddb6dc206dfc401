package model

// Column names of the two output tables. Order and spelling are part of the
// output contract.
const (
	ColPDBID      = "PDB_ID"
	ColResolution = "Resolution"
	ColUniProtID  = "UniProt_ID"
)

// FlatColumns is the header of the all-entries table.
var FlatColumns = []string{ColPDBID, ColResolution, ColUniProtID}

// BestColumns is the header of the best-resolution table.
var BestColumns = []string{ColUniProtID, ColPDBID, ColResolution}

// FlatRow pairs one PDB entry with one linked UniProt accession.
// Resolution is kept as text: rows read back from a table may carry values
// that are not numbers, and an unreported resolution is the empty string.
type FlatRow struct {
	PDBID      string `json:"pdb_id"`
	Resolution string `json:"resolution"`
	UniProtID  string `json:"uniprot_id"`
}

// Record returns the row in FlatColumns order.
func (r FlatRow) Record() []string {
	return []string{r.PDBID, r.Resolution, r.UniProtID}
}

// ReducedRow is the best-resolution PDB entry for one UniProt accession.
type ReducedRow struct {
	UniProtID  string  `json:"uniprot_id"`
	PDBID      string  `json:"pdb_id"`
	Resolution float64 `json:"resolution"`
}

// ReduceStats counts what the reducer dropped on the way to its output.
type ReduceStats struct {
	Input                int `json:"input" yaml:"input"`
	DroppedMissingID     int `json:"dropped_missing_id" yaml:"dropped_missing_id"`
	DroppedBadResolution int `json:"dropped_bad_resolution" yaml:"dropped_bad_resolution"`
	Duplicates           int `json:"duplicates" yaml:"duplicates"`
	Groups               int `json:"groups" yaml:"groups"`
}
