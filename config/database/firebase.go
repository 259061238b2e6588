package database

import (
	"context"
	"encoding/base64"
	"fmt"

	"Campfire/config/environment"
	"Campfire/logging"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

// InitFirestore builds the Firestore client backing the feedback board.
// Returns nil, nil when Firebase isn't configured.
func InitFirestore(ctx context.Context, cfg environment.FirebaseConfig) (*firestore.Client, error) {
	if !cfg.Enabled() {
		logging.Warn().Msg("Firebase credentials not set, feedback board disabled")
		return nil, nil
	}

	decodedCredentials, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("decode firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(decodedCredentials))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	logging.Info().Str("project", cfg.ProjectID).Msg("Firebase Firestore initialized")
	return client, nil
}
