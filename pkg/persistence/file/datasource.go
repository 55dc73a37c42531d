package file

import (
	"context"

	"github.com/mfigueira/formpilot/pkg/models"
	"github.com/mfigueira/formpilot/pkg/persistence"
)

func (p *Persistence) DataSourceByID(_ context.Context, id string) (*models.DataSource, error) {
	var source models.DataSource

	if err := p.read(dataSourcesDir, id, &source); err != nil {
		if notExist(err) {
			return nil, persistence.NewStoreError("DataSourceByID", "data_source", id, persistence.ErrDataSourceNotFound)
		}

		return nil, persistence.NewStoreError("DataSourceByID", "data_source", id, err)
	}

	return &source, nil
}

func (p *Persistence) DataSourceRecords(ctx context.Context, id string) ([]models.Record, error) {
	source, err := p.DataSourceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return source.Records, nil
}

// SaveDataSource stores a record batch; used by import tooling and tests.
func (p *Persistence) SaveDataSource(_ context.Context, source *models.DataSource) error {
	if err := p.write(dataSourcesDir, source.ID, source); err != nil {
		return persistence.NewStoreError("SaveDataSource", "data_source", source.ID, err)
	}

	return nil
}
