package repository

import (
	"context"

	"gamification-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type CertificateRepository struct {
	Col *mongo.Collection
}

func NewCertificateRepository(db *mongo.Database) *CertificateRepository {
	return &CertificateRepository{Col: db.Collection("certificates")}
}

func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	_, err := r.Col.InsertOne(ctx, cert)
	return err
}

func (r *CertificateRepository) FindByUser(ctx context.Context, userID string) ([]models.Certificate, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var certs []models.Certificate
	for cur.Next(ctx) {
		var cert models.Certificate
		if err := cur.Decode(&cert); err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, cur.Err()
}
