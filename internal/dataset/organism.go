package dataset

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/model"
	"github.com/sells-group/bestres/internal/resilience"
	"github.com/sells-group/bestres/pkg/uniprot"
)

// OrganismRejection explains why an accession was excluded by FilterOrganism.
type OrganismRejection struct {
	UniProtID string `json:"uniprot_id" yaml:"uniprot_id"`
	Organism  string `json:"organism,omitempty" yaml:"organism,omitempty"`
	Reason    string `json:"reason" yaml:"reason"`
}

// FilterOrganism keeps rows whose accession belongs to organism, matched
// against the UniProt scientific name ignoring case. Each accession is looked
// up once; a failed lookup rejects it. Rows without an accession pass through
// untouched. An empty organism disables the filter.
func FilterOrganism(ctx context.Context, client uniprot.Client, rows []model.FlatRow, organism string) ([]model.FlatRow, []OrganismRejection) {
	organism = strings.TrimSpace(organism)
	if organism == "" || client == nil {
		return rows, nil
	}

	verdict := make(map[string]bool)
	var rejected []OrganismRejection
	kept := make([]model.FlatRow, 0, len(rows))

	for _, r := range rows {
		uid := strings.TrimSpace(r.UniProtID)
		if uid == "" {
			kept = append(kept, r)
			continue
		}

		ok, known := verdict[uid]
		if !known {
			ok = true
			entry, err := client.Entry(ctx, uid)
			switch {
			case err != nil:
				ok = false
				rejected = append(rejected, OrganismRejection{UniProtID: uid, Reason: resilience.Classify(err)})
				zap.L().Warn("uniprot lookup failed, excluding accession",
					zap.String("uniprot_id", uid),
					zap.Error(err),
				)
			case !strings.EqualFold(entry.Organism.ScientificName, organism):
				ok = false
				rejected = append(rejected, OrganismRejection{
					UniProtID: uid,
					Organism:  entry.Organism.ScientificName,
					Reason:    "organism",
				})
			}
			verdict[uid] = ok
		}

		if ok {
			kept = append(kept, r)
		}
	}

	zap.L().Info("organism filter applied",
		zap.String("organism", organism),
		zap.Int("accessions", len(verdict)),
		zap.Int("rejected", len(rejected)),
		zap.Int("rows_kept", len(kept)),
	)
	return kept, rejected
}
