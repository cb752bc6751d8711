package db

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/RedouaeElalami/chutney/internal/dataset"
)

type DatasetRepo struct {
	db *sql.DB
}

var datasetColumns = []string{"id", "name", "description", "creation_date", "tags_json", "constants_json", "datatable_json"}

func (r *DatasetRepo) Save(ctx context.Context, ds dataset.DataSet) error {
	tags, err := marshalJSON(nonNil(ds.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	constants := ds.Constants
	if constants == nil {
		constants = map[string]string{}
	}
	constantsJSON, err := marshalJSON(constants)
	if err != nil {
		return fmt.Errorf("encode constants: %w", err)
	}
	datatable, err := marshalJSON(nonNil(ds.Datatable))
	if err != nil {
		return fmt.Errorf("encode datatable: %w", err)
	}

	_, err = exec(ctx, r.db, builder().
		Insert("datasets").
		Columns(datasetColumns...).
		Values(ds.ID, ds.Name, ds.Description, ts(ds.CreationDate), tags, constantsJSON, datatable).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	description=excluded.description,
	tags_json=excluded.tags_json,
	constants_json=excluded.constants_json,
	datatable_json=excluded.datatable_json`))
	if err != nil {
		return fmt.Errorf("upsert dataset: %w", err)
	}
	return nil
}

func (r *DatasetRepo) FindByID(ctx context.Context, id string) (dataset.DataSet, error) {
	row, err := queryRow(ctx, r.db, builder().Select(datasetColumns...).From("datasets").Where(sq.Eq{"id": id}))
	if err != nil {
		return dataset.DataSet{}, err
	}
	ds, err := scanDataset(row)
	if noRows(err) {
		return dataset.DataSet{}, dataset.ErrNotFound
	}
	return ds, err
}

func (r *DatasetRepo) RemoveByID(ctx context.Context, id string) error {
	res, err := exec(ctx, r.db, builder().Delete("datasets").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return rowsAffected(res, dataset.ErrNotFound)
}

func (r *DatasetRepo) FindAll(ctx context.Context) ([]dataset.DataSet, error) {
	rows, err := query(ctx, r.db, builder().Select(datasetColumns...).From("datasets").OrderBy("name ASC", "id ASC"))
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	out := []dataset.DataSet{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func scanDataset(s scanner) (dataset.DataSet, error) {
	var (
		ds                         dataset.DataSet
		created                    string
		tags, constants, datatable sql.NullString
	)
	if err := s.Scan(&ds.ID, &ds.Name, &ds.Description, &created, &tags, &constants, &datatable); err != nil {
		return dataset.DataSet{}, err
	}
	t, err := parseTS(created)
	if err != nil {
		return dataset.DataSet{}, fmt.Errorf("parse creation_date of %s: %w", ds.ID, err)
	}
	ds.CreationDate = t
	if err := unmarshalJSON(tags, &ds.Tags); err != nil {
		return dataset.DataSet{}, fmt.Errorf("decode tags of %s: %w", ds.ID, err)
	}
	if err := unmarshalJSON(constants, &ds.Constants); err != nil {
		return dataset.DataSet{}, fmt.Errorf("decode constants of %s: %w", ds.ID, err)
	}
	if err := unmarshalJSON(datatable, &ds.Datatable); err != nil {
		return dataset.DataSet{}, fmt.Errorf("decode datatable of %s: %w", ds.ID, err)
	}
	return ds, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
