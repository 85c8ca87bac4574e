package classify

import (
	"fmt"
	"time"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/model"
	"github.com/cognicore/cnoc/pkg/cnoc/tfidf"
)

type vectorizerFile struct {
	RunID      string            `json:"run_id"`
	CreatedAt  time.Time         `json:"created_at"`
	TextColumn string            `json:"text_column"`
	Vectorizer *tfidf.Vectorizer `json:"vectorizer"`
}

type classifierFile struct {
	RunID     string                    `json:"run_id"`
	CreatedAt time.Time                 `json:"created_at"`
	Model     *model.LogisticRegression `json:"model"`
}

// Save writes the pair to artifact.Vectorizer and artifact.Classifier,
// replacing any previous run.
func Save(store *artifact.Store, a *Artifact) error {
	if err := store.WriteJSON(artifact.Vectorizer, vectorizerFile{
		RunID:      a.RunID,
		CreatedAt:  a.CreatedAt,
		TextColumn: a.TextColumn,
		Vectorizer: a.Vectorizer,
	}); err != nil {
		return fmt.Errorf("save vectorizer: %w", err)
	}
	if err := store.WriteJSON(artifact.Classifier, classifierFile{
		RunID:     a.RunID,
		CreatedAt: a.CreatedAt,
		Model:     a.Model,
	}); err != nil {
		return fmt.Errorf("save classifier: %w", err)
	}
	return nil
}

// Load reads the pair written by Save. Halves from different runs are
// rejected with internalerr.ErrArtifactMismatch.
func Load(store *artifact.Store) (*Artifact, error) {
	var vf vectorizerFile
	if err := store.ReadJSON(artifact.Vectorizer, &vf); err != nil {
		return nil, fmt.Errorf("load vectorizer: %w", err)
	}
	var cf classifierFile
	if err := store.ReadJSON(artifact.Classifier, &cf); err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}

	if vf.RunID != cf.RunID {
		return nil, fmt.Errorf("vectorizer run %s, classifier run %s: %w", vf.RunID, cf.RunID, internalerr.ErrArtifactMismatch)
	}
	if vf.Vectorizer == nil || cf.Model == nil {
		return nil, fmt.Errorf("model artifacts incomplete: %w", internalerr.ErrInvalidInput)
	}
	if err := cf.Model.Validate(); err != nil {
		return nil, fmt.Errorf("classifier: %v: %w", err, internalerr.ErrInvalidInput)
	}
	if cf.Model.Features != vf.Vectorizer.Features() {
		return nil, fmt.Errorf("classifier expects %d features, vectorizer has %d: %w",
			cf.Model.Features, vf.Vectorizer.Features(), internalerr.ErrArtifactMismatch)
	}

	return &Artifact{
		RunID:      vf.RunID,
		TextColumn: vf.TextColumn,
		CreatedAt:  vf.CreatedAt,
		Vectorizer: vf.Vectorizer,
		Model:      cf.Model,
	}, nil
}
