package schema_test

import (
	"context"
	"testing"

	"github.com/storekit/catalog/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeCatalogEventV1(t *testing.T) {

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeCatalogEventV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("IdentifierAndSubjectOpts", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := "catalog-events-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CatalogEventSchemaTextV1,
		).Return(schemaID, nil)

		_, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := "catalog-events-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CatalogEventSchemaTextV1,
		).Return(schemaID, nil)

		serde, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		vEncode := schema.CatalogEventV1{
			Kind:      "image_added",
			ProductID: 42,
			ImageID:   7,
			ImageURL:  "hdfs://img/7f3a.jpg",
		}

		data, err := serde.Encode(vEncode)
		require.NoError(t, err)

		var vDecode schema.CatalogEventV1
		err = serde.Decode(data, &vDecode)
		require.NoError(t, err)

		assert.Equal(t, vEncode, vDecode)
	})
}

func TestSerdeSupplierProductV1(t *testing.T) {
	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		subject := "supplier-products-value"

		schemaIdentifier.On(
			"DetermineID",
			t.Context(), subject, schema.SupplierProductSchemaTextV1,
		).Return(3, nil)

		serde, err := schema.NewSerdeSupplierProductV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		vEncode := schema.SupplierProductV1{
			SKU:           "SKU-000451",
			Name:          "Electric kettle",
			Price:         34.90,
			StockQuantity: 12,
			CategoryID:    7,
			Active:        true,
		}

		data, err := serde.Encode(vEncode)
		require.NoError(t, err)

		var vDecode schema.SupplierProductV1
		err = serde.Decode(data, &vDecode)
		require.NoError(t, err)

		assert.Equal(t, vEncode, vDecode)
	})
}
