package sqlx

import (
	"github.com/ksislv/silverstripe-framework/pkg/logx"
)

// Commit finishes a transaction, rolling back instead when err is
// already set. The original error always wins over a rollback failure.
func Commit(logger logx.Logger, tx *Tx, err error) error {
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			logger.Error(failedToRollback, rollbackErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		logger.Error(failedToCommit, err)
		return err
	}

	logger.Debug(committed)
	return nil
}
