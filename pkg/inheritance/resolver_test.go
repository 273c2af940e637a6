package inheritance_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"code.cloudfoundry.org/lager/lagertest"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ksislv/silverstripe-framework/errdefs"
	"github.com/ksislv/silverstripe-framework/pkg/inheritance"
	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/logx/lagerx"
	"github.com/ksislv/silverstripe-framework/pkg/metrics/testmetrics"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
	"github.com/ksislv/silverstripe-framework/pkg/repos/inmemory"
)

type testPolicy struct {
	view   bool
	edit   bool
	delete bool
}

func (p testPolicy) CanView(member permissions.Member) bool   { return p.view }
func (p testPolicy) CanEdit(member permissions.Member) bool   { return p.edit }
func (p testPolicy) CanDelete(member permissions.Member) bool { return p.delete }

type capabilityGrant struct {
	allow bool
}

func (c capabilityGrant) HasCapability(member permissions.Member, perms []string) bool {
	return c.allow
}

type securityEntry struct {
	Signature string
	Name      string
	Args      []logx.SecurityData
}

type recordingSecurityLogger struct {
	mu      sync.Mutex
	entries []securityEntry
}

func (l *recordingSecurityLogger) Log(ctx context.Context, signature, name string, args ...logx.SecurityData) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, securityEntry{Signature: signature, Name: name, Args: args})
}

func (l *recordingSecurityLogger) Entries() []securityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.entries
}

var _ = Describe("Resolver", func() {
	var (
		ctx        context.Context
		cancelFunc context.CancelFunc
		logger     logx.Logger

		store   *inmemory.Store
		subject *inheritance.Resolver

		member permissions.Member
	)

	seed := func(records ...permissions.Record) {
		for _, record := range records {
			ExpectWithOffset(1, store.CreateRecord(ctx, logger, "", record)).To(Succeed())
		}
	}

	assign := func(relation repos.GroupRelation, recordID, groupID int64) {
		ExpectWithOffset(1, store.AssignGroup(ctx, logger, relation, recordID, groupID)).To(Succeed())
	}

	BeforeEach(func() {
		ctx, cancelFunc = context.WithTimeout(context.Background(), 1*time.Second)
		logger = lagerx.NewLogger(lagertest.NewTestLogger("permissions-test"))

		store = inmemory.NewStore()
		subject = inheritance.NewResolver(store)

		member = permissions.Member{ID: 7, GroupIDs: []int64{10}}
	})

	AfterEach(func() {
		cancelFunc()
	})

	Describe("#Resolve", func() {
		Context("for view", func() {
			It("denies records no rule covers", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelOnlyTheseUsers, CanEditType: permissions.LevelAnyone})

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(Equal(map[int64]bool{1: false, 2: false}))
			})

			It("drops invalid IDs", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone})

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{0, -4, 1}, member, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(Equal(map[int64]bool{1: true}))
			})

			It("grants Anyone records to the anonymous member", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit})

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, permissions.Everyone, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeTrue())
			})

			It("withholds LoggedInUsers records from the anonymous member", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelLoggedInUsers, CanEditType: permissions.LevelInherit})

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, permissions.Everyone, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeFalse())

				results, err = subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeTrue())
			})

			It("grants OnlyTheseUsers records through group membership", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelOnlyTheseUsers, CanEditType: permissions.LevelInherit})
				assign(repos.RelationViewerGroups, 1, 10)

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeTrue())

				outsider := permissions.Member{ID: 8, GroupIDs: []int64{99}}
				results, err = subject.Resolve(ctx, logger, permissions.View, []int64{1}, outsider, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeFalse())
			})

			It("resolves Inherit through the parent chain", func() {
				seed(
					permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 3, ParentID: 2, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				)

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{3}, member, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results[3]).To(BeTrue())
			})

			It("denies Inherit when the parent denies", func() {
				seed(
					permissions.Record{ID: 1, CanViewType: permissions.LevelOnlyTheseUsers, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				)

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{2}, member, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results[2]).To(BeFalse())
			})

			It("lets records inherit from others in the same batch", func() {
				seed(
					permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				)

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(Equal(map[int64]bool{1: true, 2: true}))
			})

			It("resolves chains that pass through other batch members", func() {
				seed(
					permissions.Record{ID: 1, ParentID: 10, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 10, ParentID: 2, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 2, ParentID: 20, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 20, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit},
				)

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(Equal(map[int64]bool{1: true, 2: true}))
			})

			It("falls back to the default policy at an inheriting root", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit})

				results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeFalse())

				subject.SetDefaultPolicy(testPolicy{view: true})
				subject.ClearCache()

				results, err = subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeTrue())
			})

			It("fails on a cyclic parent graph", func() {
				seed(
					permissions.Record{ID: 1, ParentID: 2, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
					permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit},
				)

				_, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)

				var cycleErr errdefs.ErrCycleDetected
				Expect(errors.As(err, &cycleErr)).To(BeTrue())
				Expect(cycleErr.RecordID()).To(Equal(int64(1)))
			})
		})

		Context("for edit", func() {
			It("denies the anonymous member without consulting the store", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone})

				results, err := subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, permissions.Everyone, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeFalse())
				Expect(store.FetchByIDsCallCount()).To(BeZero())
			})

			It("grants through editor groups, not viewer groups", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelOnlyTheseUsers})
				assign(repos.RelationViewerGroups, 1, 10)

				results, err := subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeFalse())

				assign(repos.RelationEditorGroups, 1, 10)
				subject.ClearCache()

				results, err = subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[1]).To(BeTrue())
			})

			Context("with global edit permissions", func() {
				BeforeEach(func() {
					seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone})
				})

				It("denies everything without a capability checker", func() {
					subject = inheritance.NewResolver(store,
						inheritance.WithGlobalEditPermissions([]string{"CMS_ACCESS_LeftAndMain"}),
					)

					results, err := subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)

					Expect(err).NotTo(HaveOccurred())
					Expect(results[1]).To(BeFalse())
				})

				It("denies members missing the capability", func() {
					subject = inheritance.NewResolver(store,
						inheritance.WithGlobalEditPermissions([]string{"CMS_ACCESS_LeftAndMain"}),
						inheritance.WithCapabilityChecker(capabilityGrant{allow: false}),
					)

					results, err := subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)

					Expect(err).NotTo(HaveOccurred())
					Expect(results[1]).To(BeFalse())
				})

				It("resolves normally for members holding the capability", func() {
					subject = inheritance.NewResolver(store,
						inheritance.WithGlobalEditPermissions([]string{"CMS_ACCESS_LeftAndMain"}),
						inheritance.WithCapabilityChecker(capabilityGrant{allow: true}),
					)

					results, err := subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)

					Expect(err).NotTo(HaveOccurred())
					Expect(results[1]).To(BeTrue())
				})

				It("never gates view", func() {
					subject = inheritance.NewResolver(store,
						inheritance.WithGlobalEditPermissions([]string{"CMS_ACCESS_LeftAndMain"}),
					)

					results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)

					Expect(err).NotTo(HaveOccurred())
					Expect(results[1]).To(BeTrue())
				})

				It("can be installed at runtime", func() {
					results, err := subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)
					Expect(err).NotTo(HaveOccurred())
					Expect(results[1]).To(BeTrue())

					subject.SetGlobalEditPermissions([]string{"CMS_ACCESS_LeftAndMain"})
					subject.ClearCache()

					results, err = subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)
					Expect(err).NotTo(HaveOccurred())
					Expect(results[1]).To(BeFalse())
				})
			})
		})

		It("fails fast on an unknown operation", func() {
			_, err := subject.Resolve(ctx, logger, permissions.Operation(42), []int64{1}, member, true)

			Expect(err).To(MatchError(errdefs.NewErrUnsupportedOperation("unknown")))
		})
	})

	Describe("staged records", func() {
		var staged *inmemory.StagedStore

		seedStage := func(stage permissions.Stage, records ...permissions.Record) {
			for _, record := range records {
				ExpectWithOffset(1, staged.CreateRecord(ctx, logger, stage, record)).To(Succeed())
			}
		}

		BeforeEach(func() {
			staged = inmemory.NewStagedStore()
			subject = inheritance.NewResolver(staged)
		})

		It("prefers the draft record over the live one", func() {
			seedStage(permissions.StageDraft, permissions.Record{ID: 1, CanViewType: permissions.LevelOnlyTheseUsers, CanEditType: permissions.LevelInherit})
			seedStage(permissions.StageLive, permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit})

			results, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1]).To(BeFalse())
		})

		It("falls through to live for published-only records", func() {
			seedStage(permissions.StageLive, permissions.Record{ID: 3, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit})

			results, err := subject.Resolve(ctx, logger, permissions.View, []int64{3}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[3]).To(BeTrue())
		})

		It("resolves drafts whose parents exist only in live", func() {
			seedStage(permissions.StageDraft, permissions.Record{ID: 4, ParentID: 5, CanViewType: permissions.LevelInherit, CanEditType: permissions.LevelInherit})
			seedStage(permissions.StageLive, permissions.Record{ID: 5, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit})

			results, err := subject.Resolve(ctx, logger, permissions.View, []int64{4}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[4]).To(BeTrue())
		})

		It("denies records absent from every stage", func() {
			results, err := subject.Resolve(ctx, logger, permissions.View, []int64{9}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[9]).To(BeFalse())
		})
	})

	Describe("#ResolveDelete", func() {
		It("deletes an editable leaf", func() {
			seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone})

			results, err := subject.ResolveDelete(ctx, logger, []int64{1}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1]).To(BeTrue())
		})

		It("requires every descendant to be deletable", func() {
			seed(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 3, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelOnlyTheseUsers},
			)

			results, err := subject.ResolveDelete(ctx, logger, []int64{1, 2}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(Equal(map[int64]bool{1: false, 2: true}))
		})

		It("recurses through grandchildren", func() {
			seed(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 4, ParentID: 2, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
			)

			results, err := subject.ResolveDelete(ctx, logger, []int64{1}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1]).To(BeTrue())
		})

		It("denies when a grandchild is not deletable", func() {
			seed(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 3, ParentID: 2, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelOnlyTheseUsers},
			)

			results, err := subject.ResolveDelete(ctx, logger, []int64{1}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1]).To(BeFalse())
		})

		It("cascades through chains that pass through other batch members", func() {
			seed(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 11, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, ParentID: 11, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 22, ParentID: 2, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
			)

			results, err := subject.ResolveDelete(ctx, logger, []int64{1, 2}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(Equal(map[int64]bool{1: true, 2: true}))
		})

		It("denies the anonymous member", func() {
			seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone})

			results, err := subject.ResolveDelete(ctx, logger, []int64{1}, permissions.Everyone, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1]).To(BeFalse())
		})

		It("matches Resolve with the delete operation", func() {
			seed(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelOnlyTheseUsers},
			)

			direct, err := subject.ResolveDelete(ctx, logger, []int64{1, 2}, member, true)
			Expect(err).NotTo(HaveOccurred())

			viaResolve, err := subject.Resolve(ctx, logger, permissions.Delete, []int64{1, 2}, member, true)
			Expect(err).NotTo(HaveOccurred())

			Expect(viaResolve).To(Equal(direct))
		})

		It("honors the global edit gate", func() {
			seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone})

			subject = inheritance.NewResolver(store,
				inheritance.WithGlobalEditPermissions([]string{"CMS_ACCESS_LeftAndMain"}),
			)

			results, err := subject.ResolveDelete(ctx, logger, []int64{1}, member, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(results[1]).To(BeFalse())
		})

		It("fails on a cyclic tree", func() {
			seed(
				permissions.Record{ID: 1, ParentID: 2, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, ParentID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
			)

			_, err := subject.ResolveDelete(ctx, logger, []int64{1}, member, true)

			var cycleErr errdefs.ErrCycleDetected
			Expect(errors.As(err, &cycleErr)).To(BeTrue())
		})
	})

	Describe("caching", func() {
		BeforeEach(func() {
			seed(
				permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelAnyone},
				permissions.Record{ID: 2, CanViewType: permissions.LevelLoggedInUsers, CanEditType: permissions.LevelOnlyTheseUsers},
			)
		})

		It("serves repeat resolutions from the cache", func() {
			first, err := subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)
			Expect(err).NotTo(HaveOccurred())

			fetches := store.FetchByIDsCallCount()

			second, err := subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
			Expect(store.FetchByIDsCallCount()).To(Equal(fetches))
		})

		It("bypasses the cache when asked", func() {
			_, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, false)
			Expect(err).NotTo(HaveOccurred())

			fetches := store.FetchByIDsCallCount()

			_, err = subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, false)
			Expect(err).NotTo(HaveOccurred())

			Expect(store.FetchByIDsCallCount()).To(BeNumerically(">", fetches))
		})

		It("recomputes after ClearCache", func() {
			_, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
			Expect(err).NotTo(HaveOccurred())

			fetches := store.FetchByIDsCallCount()
			subject.ClearCache()

			_, err = subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
			Expect(err).NotTo(HaveOccurred())

			Expect(store.FetchByIDsCallCount()).To(BeNumerically(">", fetches))
		})

		It("keeps operations separate", func() {
			_, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
			Expect(err).NotTo(HaveOccurred())

			fetches := store.FetchByIDsCallCount()

			_, err = subject.Resolve(ctx, logger, permissions.Edit, []int64{1}, member, true)
			Expect(err).NotTo(HaveOccurred())

			Expect(store.FetchByIDsCallCount()).To(BeNumerically(">", fetches))
		})

		It("serves single-record checks after PrePopulate", func() {
			err := subject.PrePopulate(ctx, logger, permissions.View, []int64{1, 2}, member)
			Expect(err).NotTo(HaveOccurred())

			fetches := store.FetchByIDsCallCount()

			allowed, err := subject.CanView(ctx, logger, 2, member)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
			Expect(store.FetchByIDsCallCount()).To(Equal(fetches))
		})

		It("rejects pre-populating an unknown operation", func() {
			err := subject.PrePopulate(ctx, logger, permissions.Operation(42), []int64{1}, member)

			Expect(err).To(MatchError(errdefs.NewErrUnsupportedOperation("unknown")))
		})

		Context("metrics", func() {
			var statter *testmetrics.Statter

			BeforeEach(func() {
				statter = testmetrics.NewStatter()
				subject = inheritance.NewResolver(store, inheritance.WithStatter(statter))
			})

			It("counts cache misses and hits", func() {
				_, err := subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)
				Expect(err).NotTo(HaveOccurred())

				Expect(statter.IncTotal("permissions.cache.misses")).To(Equal(int64(2)))
				Expect(statter.IncTotal("permissions.cache.hits")).To(BeZero())

				_, err = subject.Resolve(ctx, logger, permissions.View, []int64{1, 2}, member, true)
				Expect(err).NotTo(HaveOccurred())

				Expect(statter.IncTotal("permissions.cache.misses")).To(Equal(int64(2)))
				Expect(statter.IncTotal("permissions.cache.hits")).To(Equal(int64(2)))
			})

			It("times every resolution", func() {
				_, err := subject.Resolve(ctx, logger, permissions.View, []int64{1}, member, true)
				Expect(err).NotTo(HaveOccurred())

				calls := statter.TimingDurationCalls()
				Expect(calls).NotTo(BeEmpty())
				Expect(calls[0].Metric).To(Equal("permissions.resolve.duration"))
			})
		})
	})

	Describe("single-record checks", func() {
		It("consults only the default policy for unsaved records", func() {
			allowed, err := subject.CanView(ctx, logger, 0, member)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())

			subject.SetDefaultPolicy(testPolicy{view: true})

			allowed, err = subject.CanView(ctx, logger, 0, member)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
			Expect(store.FetchByIDsCallCount()).To(BeZero())
		})

		It("answers for saved records like a batch of one", func() {
			seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelOnlyTheseUsers})
			assign(repos.RelationEditorGroups, 1, 10)

			allowed, err := subject.CanView(ctx, logger, 1, member)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())

			allowed, err = subject.CanEdit(ctx, logger, 1, member)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())

			allowed, err = subject.CanDelete(ctx, logger, 1, member)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		Context("with a security logger", func() {
			var audit *recordingSecurityLogger

			BeforeEach(func() {
				audit = &recordingSecurityLogger{}
				subject = inheritance.NewResolver(store, inheritance.WithSecurityLogger(audit))
			})

			It("records every decision", func() {
				seed(permissions.Record{ID: 1, CanViewType: permissions.LevelAnyone, CanEditType: permissions.LevelInherit})

				allowed, err := subject.CanView(ctx, logger, 1, member)
				Expect(err).NotTo(HaveOccurred())
				Expect(allowed).To(BeTrue())

				entries := audit.Entries()
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Signature).To(Equal("PermissionCheck"))
				Expect(entries[0].Name).To(Equal("view"))
				Expect(entries[0].Args).To(ContainElement(logx.SecurityData{Key: "record_id", Value: "1"}))
				Expect(entries[0].Args).To(ContainElement(logx.SecurityData{Key: "allowed", Value: "true"}))
			})
		})
	})
})
