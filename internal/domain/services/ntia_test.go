package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

func TestValidateNTIA(t *testing.T) {
	svc := newTestService(nil)
	edge := []entities.DependencyEdge{{From: "a", To: "b", Type: entities.EdgeTypeDependsOn}}

	t.Run("fully compliant", func(t *testing.T) {
		doc := entities.SbomDocument{
			SpecVersion:  "1.5",
			SerialNumber: "urn:uuid:1",
			Created:      "2025-01-01T00:00:00Z",
			Generators:   []entities.Generator{{Name: "syft"}},
		}
		got := svc.ValidateNTIA(doc, edge)
		assert.True(t, got.Compliant)
		assert.Equal(t, 100, got.Score)
		assert.Empty(t, got.FailedChecks)
		assert.Len(t, got.Checks, 5)
	})

	t.Run("missing timestamp and identifiers", func(t *testing.T) {
		doc := entities.SbomDocument{
			SpecVersion: "1.4",
			Authors:     []entities.Author{{Name: "Jane"}},
		}
		got := svc.ValidateNTIA(doc, edge)
		assert.False(t, got.Compliant)
		assert.Equal(t, 60, got.Score)
		assert.Equal(t, []string{entities.CheckSbomTimestamp, entities.CheckSerialNumberOrDocumentNamespace}, got.FailedChecks)
	})

	t.Run("failed checks keep table order", func(t *testing.T) {
		got := svc.ValidateNTIA(entities.SbomDocument{DocumentNamespace: "https://example.com/ns"}, nil)
		assert.Equal(t, 20, got.Score)
		assert.Equal(t, []string{
			entities.CheckDependencyGraph,
			entities.CheckAuthorOrOriginator,
			entities.CheckSbomTimestamp,
			entities.CheckSpecVersion,
		}, got.FailedChecks)
		assert.True(t, got.Checks[entities.CheckSerialNumberOrDocumentNamespace])
	})
}
