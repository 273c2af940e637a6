package reposbehaviors_test

import (
	"context"
	"time"

	"code.cloudfoundry.org/lager/lagertest"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/logx/lagerx"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

// RecordStore is the full surface exercised by the shared behavior: the
// read side consumed by the resolver plus the write side used to seed
// it.
type RecordStore interface {
	repos.RecordRepo

	CreateRecord(
		ctx context.Context,
		logger logx.Logger,
		stage permissions.Stage,
		record permissions.Record,
	) error

	AssignGroup(
		ctx context.Context,
		logger logx.Logger,
		relation repos.GroupRelation,
		recordID int64,
		groupID int64,
	) error
}

func BehavesLikeARecordRepo(subjectCreator func() RecordStore) {
	var (
		subject RecordStore

		ctx    context.Context
		logger logx.Logger

		cancelFunc context.CancelFunc
	)

	BeforeEach(func() {
		subject = subjectCreator()

		ctx, cancelFunc = context.WithTimeout(context.Background(), 1*time.Second)
		logger = lagerx.NewLogger(lagertest.NewTestLogger("permissions-test"))
	})

	AfterEach(func() {
		cancelFunc()
	})

	Describe("#CreateRecord", func() {
		It("saves the record", func() {
			record := permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit}

			err := subject.CreateRecord(ctx, logger, permissions.StageDraft, record)
			Expect(err).NotTo(HaveOccurred())

			records, err := subject.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage: permissions.StageDraft,
				IDs:   []int64{1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(ConsistOf(record))
		})

		It("fails if the record already exists in the stage", func() {
			record := permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone}

			err := subject.CreateRecord(ctx, logger, permissions.StageDraft, record)
			Expect(err).NotTo(HaveOccurred())

			err = subject.CreateRecord(ctx, logger, permissions.StageDraft, record)
			Expect(err).To(Equal(permissions.ErrRecordAlreadyExists))
		})

		It("allows the same ID in different stages", func() {
			record := permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone}

			err := subject.CreateRecord(ctx, logger, permissions.StageDraft, record)
			Expect(err).NotTo(HaveOccurred())

			err = subject.CreateRecord(ctx, logger, permissions.StageLive, record)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("#FetchByIDs", func() {
		BeforeEach(func() {
			for _, record := range []permissions.Record{
				{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				{ID: 3, CanViewType: permissions.LevelLoggedInUsers, CanEditType: permissions.LevelOnlyTheseUsers},
			} {
				Expect(subject.CreateRecord(ctx, logger, permissions.StageDraft, record)).To(Succeed())
			}

			Expect(subject.CreateRecord(ctx, logger, permissions.StageLive, permissions.Record{
				ID:          1,
				CanViewType: permissions.LevelOnlyTheseUsers,
				CanEditType: permissions.LevelOnlyTheseUsers,
			})).To(Succeed())
		})

		It("returns the requested records from the requested stage", func() {
			records, err := subject.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage: permissions.StageDraft,
				IDs:   []int64{1, 3},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(ConsistOf(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 3, CanViewType: permissions.LevelLoggedInUsers, CanEditType: permissions.LevelOnlyTheseUsers},
			))
		})

		It("keeps the stages separate", func() {
			records, err := subject.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage: permissions.StageLive,
				IDs:   []int64{1, 2},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(ConsistOf(
				permissions.Record{ID: 1, CanViewType: permissions.LevelOnlyTheseUsers, CanEditType: permissions.LevelOnlyTheseUsers},
			))
		})

		It("skips IDs that do not exist", func() {
			records, err := subject.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage: permissions.StageDraft,
				IDs:   []int64{2, 99},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(ConsistOf(
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
			))
		})

		It("drops excluded IDs", func() {
			records, err := subject.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage:      permissions.StageDraft,
				IDs:        []int64{1, 2, 3},
				ExcludeIDs: []int64{1, 3},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(ConsistOf(
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
			))
		})

		It("returns nothing for an empty ID list", func() {
			records, err := subject.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage: permissions.StageDraft,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("#FetchChildren", func() {
		BeforeEach(func() {
			for _, record := range []permissions.Record{
				{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				{ID: 3, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				{ID: 4, ParentID: 2, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
			} {
				Expect(subject.CreateRecord(ctx, logger, permissions.StageDraft, record)).To(Succeed())
			}
		})

		It("returns the direct children of the requested parents", func() {
			children, err := subject.FetchChildren(ctx, logger, repos.ChildrenQuery{
				ParentIDs: []int64{1},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(ConsistOf(
				repos.ChildRecord{ID: 2, ParentID: 1},
				repos.ChildRecord{ID: 3, ParentID: 1},
			))
		})

		It("returns nothing for a leaf", func() {
			children, err := subject.FetchChildren(ctx, logger, repos.ChildrenQuery{
				ParentIDs: []int64{4},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(BeEmpty())
		})
	})

	Describe("#AssignGroup", func() {
		It("fails if the assignment already exists", func() {
			err := subject.AssignGroup(ctx, logger, repos.RelationViewerGroups, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			err = subject.AssignGroup(ctx, logger, repos.RelationViewerGroups, 1, 10)
			Expect(err).To(Equal(permissions.ErrGroupAssignmentAlreadyExists))
		})

		It("keeps the viewer and editor relations separate", func() {
			err := subject.AssignGroup(ctx, logger, repos.RelationViewerGroups, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			err = subject.AssignGroup(ctx, logger, repos.RelationEditorGroups, 1, 10)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("#FetchGroupGrantedIDs", func() {
		BeforeEach(func() {
			for _, record := range []permissions.Record{
				{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelOnlyTheseUsers},
				{ID: 2, CanViewType: permissions.LevelLoggedInUsers, CanEditType: permissions.LevelLoggedInUsers},
				{ID: 3, CanViewType: permissions.LevelOnlyTheseUsers, CanEditType: permissions.LevelOnlyTheseUsers},
				{ID: 4, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
			} {
				Expect(subject.CreateRecord(ctx, logger, permissions.StageDraft, record)).To(Succeed())
			}

			Expect(subject.AssignGroup(ctx, logger, repos.RelationViewerGroups, 3, 10)).To(Succeed())
			Expect(subject.AssignGroup(ctx, logger, repos.RelationEditorGroups, 3, 20)).To(Succeed())
		})

		It("grants Anyone records when anonymous access is allowed", func() {
			granted, err := subject.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
				Stage:        permissions.StageDraft,
				Field:        repos.FieldCanView,
				Relation:     repos.RelationViewerGroups,
				CandidateIDs: []int64{1, 2, 3, 4},
				AllowAnyone:  true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(ConsistOf(int64(1)))
		})

		It("grants LoggedInUsers records only when logged-in access is allowed", func() {
			granted, err := subject.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
				Stage:         permissions.StageDraft,
				Field:         repos.FieldCanView,
				Relation:      repos.RelationViewerGroups,
				CandidateIDs:  []int64{1, 2, 3, 4},
				AllowAnyone:   true,
				AllowLoggedIn: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(ConsistOf(int64(1), int64(2)))
		})

		It("grants OnlyTheseUsers records through a group assignment", func() {
			granted, err := subject.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
				Stage:         permissions.StageDraft,
				Field:         repos.FieldCanView,
				Relation:      repos.RelationViewerGroups,
				CandidateIDs:  []int64{1, 2, 3, 4},
				GroupIDs:      []int64{10, 11},
				AllowAnyone:   true,
				AllowLoggedIn: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(ConsistOf(int64(1), int64(2), int64(3)))
		})

		It("does not grant OnlyTheseUsers records through the wrong relation", func() {
			granted, err := subject.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
				Stage:         permissions.StageDraft,
				Field:         repos.FieldCanEdit,
				Relation:      repos.RelationEditorGroups,
				CandidateIDs:  []int64{1, 2, 3, 4},
				GroupIDs:      []int64{10},
				AllowLoggedIn: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(ConsistOf(int64(2)))
		})

		It("never grants Inherit records directly", func() {
			granted, err := subject.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
				Stage:         permissions.StageDraft,
				Field:         repos.FieldCanView,
				Relation:      repos.RelationViewerGroups,
				CandidateIDs:  []int64{4},
				GroupIDs:      []int64{10, 20},
				AllowAnyone:   true,
				AllowLoggedIn: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(BeEmpty())
		})

		It("returns nothing when no access rule applies", func() {
			granted, err := subject.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
				Stage:        permissions.StageDraft,
				Field:        repos.FieldCanView,
				Relation:     repos.RelationViewerGroups,
				CandidateIDs: []int64{2, 3},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(BeEmpty())
		})
	})
}
