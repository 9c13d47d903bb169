/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/lib/pq"

	"github.com/bankapp/teller/config"
	"github.com/bankapp/teller/internal/apierror"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

// Datasource is the PostgreSQL implementation of IDataSource.
type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// ConnectDB opens and pings a PostgreSQL connection. Tables are created by the migrate command.
func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	return db, nil
}

// WithinTransaction runs fn inside a READ COMMITTED transaction. Rows read through the Tx are
// locked with SELECT ... FOR UPDATE, so callers must lock accounts in a stable order.
func (d Datasource) WithinTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapDBError(err, "Failed to begin transaction")
	}

	// Rollback is a no-op once the transaction has been committed
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapDBError(err, "Failed to commit transaction")
	}
	return nil
}

// pgTx implements Tx on top of a *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

// mapDBError converts driver errors into API errors. Serialization failures and deadlocks
// become conflicts so the caller can retry the unit of work.
func mapDBError(err error, message string) error {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected":
			return apierror.Wrap(err, apierror.ErrConflict, "Concurrent update detected, please retry", err)
		case "unique_violation":
			return apierror.Wrap(err, apierror.ErrConflict, "Record already exists", err)
		case "foreign_key_violation", "check_violation":
			return apierror.Wrap(err, apierror.ErrBadRequest, message, err)
		}
	}
	return apierror.Wrap(err, apierror.ErrInternalServer, message, err)
}
