package db_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx"
	"github.com/ksislv/silverstripe-framework/pkg/sqlx/sqlxtest"

	"github.com/ksislv/silverstripe-framework/pkg/repos/db"
	. "github.com/ksislv/silverstripe-framework/pkg/repos/reposbehaviors"
)

var _ = Describe("Store", func() {
	var (
		store *db.StagedStore
		conn  *sqlx.DB
	)

	BeforeEach(func() {
		if !sqlxtest.Enabled() {
			Skip("TEST_MYSQL_HOST is not set")
		}

		var err error

		conn, err = testDB.Connect()
		Expect(err).NotTo(HaveOccurred())

		store = db.NewStagedStore(conn)
	})

	AfterEach(func() {
		if conn == nil {
			return
		}

		Expect(conn.Close()).To(Succeed())

		err := testDB.Truncate(
			"DELETE FROM record",
			"DELETE FROM record_live",
			"DELETE FROM record_viewer_groups",
			"DELETE FROM record_editor_groups",
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports its stages with drafts first", func() {
		Expect(store.Stages()).To(Equal([]permissions.Stage{
			permissions.StageDraft,
			permissions.StageLive,
		}))
	})

	BehavesLikeARecordRepo(func() RecordStore { return store })
})
