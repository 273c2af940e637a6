package inheritance

import (
	"context"
	"strconv"
	"time"

	"github.com/ksislv/silverstripe-framework/errdefs"
	"github.com/ksislv/silverstripe-framework/pkg/logx"
	"github.com/ksislv/silverstripe-framework/pkg/metrics"
	"github.com/ksislv/silverstripe-framework/pkg/permissions"
	"github.com/ksislv/silverstripe-framework/pkg/repos"
)

// Resolver computes view/edit/delete permissions for batches of records
// organized as a tree, resolving Inherit fields through parents and
// caching results per (operation, member). A Resolver owns its cache;
// callers clear it after mutating the underlying records.
type Resolver struct {
	repo   repos.RecordRepo
	stages []permissions.Stage

	policy                permissions.DefaultPolicy
	capabilities          permissions.CapabilityChecker
	globalEditPermissions []string

	cache          *permissionCache
	statter        metrics.Statter
	securityLogger logx.SecurityLogger
}

type Option func(*Resolver)

func WithDefaultPolicy(policy permissions.DefaultPolicy) Option {
	return func(r *Resolver) {
		r.policy = policy
	}
}

func WithCapabilityChecker(checker permissions.CapabilityChecker) Option {
	return func(r *Resolver) {
		r.capabilities = checker
	}
}

func WithGlobalEditPermissions(perms []string) Option {
	return func(r *Resolver) {
		r.globalEditPermissions = perms
	}
}

func WithStatter(statter metrics.Statter) Option {
	return func(r *Resolver) {
		r.statter = statter
	}
}

func WithSecurityLogger(securityLogger logx.SecurityLogger) Option {
	return func(r *Resolver) {
		r.securityLogger = securityLogger
	}
}

// NewResolver probes the repo once for staged behavior: a repo
// implementing repos.StagedRecordRepo is resolved stage by stage in
// precedence order, all others in a single pass.
func NewResolver(repo repos.RecordRepo, opts ...Option) *Resolver {
	r := &Resolver{
		repo:  repo,
		cache: newPermissionCache(),
	}

	if staged, ok := repo.(repos.StagedRecordRepo); ok {
		r.stages = staged.Stages()
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetDefaultPolicy replaces the root-level fallback policy. A nil policy
// resolves inherit-at-root records to false.
func (r *Resolver) SetDefaultPolicy(policy permissions.DefaultPolicy) {
	r.policy = policy
}

// SetGlobalEditPermissions replaces the member-level capabilities
// required before any edit or delete resolution proceeds.
func (r *Resolver) SetGlobalEditPermissions(perms []string) {
	r.globalEditPermissions = perms
}

// ClearCache drops every cached result. Callers invoke it after writes
// to the record store; nothing expires otherwise.
func (r *Resolver) ClearCache() {
	r.cache.clear()
}

// Resolve computes the permission for every requested ID. Invalid
// (non-positive) IDs are dropped; IDs no positive rule covers resolve to
// false. Unknown operations fail fast.
func (r *Resolver) Resolve(
	ctx context.Context,
	logger logx.Logger,
	op permissions.Operation,
	ids []int64,
	member permissions.Member,
	useCache bool,
) (map[int64]bool, error) {
	logger = logger.WithName("resolve").WithData(logx.Data{
		Key:   "operation",
		Value: op.String(),
	})
	logger.Debug(starting)
	defer logger.Debug(finished)
	defer r.timeResolve(time.Now())

	switch op {
	case permissions.View:
		return r.batchCheck(ctx, logger, op, ids, member, nil, useCache, nil)
	case permissions.Edit:
		return r.batchCheck(ctx, logger, op, ids, member, r.globalEditPermissions, useCache, nil)
	case permissions.Delete:
		return r.resolveDelete(ctx, logger, ids, member, useCache, nil)
	default:
		return nil, errdefs.NewErrUnsupportedOperation(op.String())
	}
}

// ResolveDelete computes delete permission: a record is deletable when
// it is editable and every one of its descendants is deletable.
func (r *Resolver) ResolveDelete(
	ctx context.Context,
	logger logx.Logger,
	ids []int64,
	member permissions.Member,
	useCache bool,
) (map[int64]bool, error) {
	logger = logger.WithName("resolve-delete")
	logger.Debug(starting)
	defer logger.Debug(finished)
	defer r.timeResolve(time.Now())

	return r.resolveDelete(ctx, logger, ids, member, useCache, nil)
}

func (r *Resolver) CanView(ctx context.Context, logger logx.Logger, id int64, member permissions.Member) (bool, error) {
	return r.can(ctx, logger, permissions.View, id, member)
}

func (r *Resolver) CanEdit(ctx context.Context, logger logx.Logger, id int64, member permissions.Member) (bool, error) {
	return r.can(ctx, logger, permissions.Edit, id, member)
}

func (r *Resolver) CanDelete(ctx context.Context, logger logx.Logger, id int64, member permissions.Member) (bool, error) {
	return r.can(ctx, logger, permissions.Delete, id, member)
}

// PrePopulate warms the cache for a batch ahead of individual checks.
func (r *Resolver) PrePopulate(
	ctx context.Context,
	logger logx.Logger,
	op permissions.Operation,
	ids []int64,
	member permissions.Member,
) error {
	logger = logger.WithName("pre-populate")

	switch op {
	case permissions.View:
		_, err := r.batchCheck(ctx, logger, op, ids, member, nil, true, nil)
		return err
	case permissions.Edit:
		_, err := r.batchCheck(ctx, logger, op, ids, member, r.globalEditPermissions, true, nil)
		return err
	case permissions.Delete:
		_, err := r.resolveDelete(ctx, logger, ids, member, true, nil)
		return err
	default:
		return errdefs.NewErrUnsupportedOperation(op.String())
	}
}

func (r *Resolver) can(
	ctx context.Context,
	logger logx.Logger,
	op permissions.Operation,
	id int64,
	member permissions.Member,
) (bool, error) {
	// Records that were never saved have no ID; only the default policy
	// can speak for them.
	if id <= 0 {
		allowed := r.policyAllows(op, member)
		r.logDecision(ctx, op, id, member, allowed)
		return allowed, nil
	}

	results, err := r.Resolve(ctx, logger, op, []int64{id}, member, true)
	if err != nil {
		return false, err
	}

	allowed := results[id]
	r.logDecision(ctx, op, id, member, allowed)
	return allowed, nil
}

// ancestry maps each record in the batch being resolved to the records
// suspended higher on its own resolution chain. Chains are tracked per
// record, never pooled across the batch: two batch members may share an
// ancestor without either chain being cyclic. A record reappearing in
// its own chain marks a cycle.
type ancestry map[int64]map[int64]struct{}

// batchCheck is the uncached-or-cached batch resolution for view and
// edit. visiting carries, per batch member, the resolution chain that
// led to it; a parent already on its child's chain means the parent
// graph is cyclic.
func (r *Resolver) batchCheck(
	ctx context.Context,
	logger logx.Logger,
	op permissions.Operation,
	ids []int64,
	member permissions.Member,
	globalPerms []string,
	useCache bool,
	visiting ancestry,
) (map[int64]bool, error) {
	ids = filterIDs(ids)

	result := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = false
	}

	// Only view is open to anonymous members.
	if member.Anonymous() && op != permissions.View {
		return result, nil
	}

	if useCache {
		cached, missing := r.cache.get(op, member.ID, ids)
		r.incr(metricCacheHits, int64(len(ids)-len(missing)))
		r.incr(metricCacheMisses, int64(len(missing)))

		if len(missing) == 0 {
			return cached, nil
		}

		computed, err := r.batchCheck(ctx, logger, op, missing, member, globalPerms, false, visiting)
		if err != nil {
			return nil, err
		}
		for id, allowed := range computed {
			cached[id] = allowed
		}
		return cached, nil
	}

	// Coarse member-level gate, checked once per batch rather than per
	// record.
	if len(globalPerms) > 0 && !r.hasCapability(member, globalPerms) {
		logger.Debug(deniedByGlobalGate, logx.Data{
			Key:   "member_id",
			Value: member.ID,
		})
		return result, nil
	}

	if len(r.stages) > 0 {
		// Resolve stage by stage; an ID settled by a higher-precedence
		// stage is excluded from every later fetch.
		settled := make(map[int64]struct{}, len(ids))
		var excludeIDs []int64

		for _, stage := range r.stages {
			pending := 0
			for _, id := range ids {
				if _, ok := settled[id]; !ok {
					pending++
				}
			}
			if pending == 0 {
				break
			}

			records, err := r.repo.FetchByIDs(ctx, logger, repos.RecordsQuery{
				Stage:      stage,
				IDs:        ids,
				ExcludeIDs: excludeIDs,
			})
			if err != nil {
				logger.Error(failedToFetchRecords, err)
				return nil, err
			}

			stageResult, err := r.checkStage(ctx, logger, op, stage, records, member, visiting)
			if err != nil {
				return nil, err
			}

			for id, allowed := range stageResult {
				result[id] = allowed
			}
			for _, record := range records {
				if _, ok := settled[record.ID]; !ok {
					settled[record.ID] = struct{}{}
					excludeIDs = append(excludeIDs, record.ID)
				}
			}
		}
	} else {
		records, err := r.repo.FetchByIDs(ctx, logger, repos.RecordsQuery{IDs: ids})
		if err != nil {
			logger.Error(failedToFetchRecords, err)
			return nil, err
		}

		stageResult, err := r.checkStage(ctx, logger, op, "", records, member, visiting)
		if err != nil {
			return nil, err
		}

		for id, allowed := range stageResult {
			result[id] = allowed
		}
	}

	r.cache.put(op, member.ID, result)
	return result, nil
}

// checkStage resolves one stage's records: direct grants through a
// single batched group lookup, then Inherit records through their
// parents, roots falling back to the default policy.
func (r *Resolver) checkStage(
	ctx context.Context,
	logger logx.Logger,
	op permissions.Operation,
	stage permissions.Stage,
	records []permissions.Record,
	member permissions.Member,
	visiting ancestry,
) (map[int64]bool, error) {
	result := make(map[int64]bool, len(records))
	if len(records) == 0 {
		return result, nil
	}

	spec, err := specForOperation(op)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		result[record.ID] = false
	}

	var directIDs []int64
	var rootInheritIDs []int64
	inheritingByParent := make(map[int64][]int64)

	for _, record := range records {
		if levelForField(record, spec.field) != permissions.LevelInherit {
			directIDs = append(directIDs, record.ID)
			continue
		}
		if record.ParentID == 0 {
			rootInheritIDs = append(rootInheritIDs, record.ID)
		} else {
			inheritingByParent[record.ParentID] = append(inheritingByParent[record.ParentID], record.ID)
		}
	}

	if len(directIDs) > 0 {
		granted, err := r.repo.FetchGroupGrantedIDs(ctx, logger, repos.GroupGrantedQuery{
			Stage:         stage,
			Field:         spec.field,
			Relation:      spec.relation,
			CandidateIDs:  directIDs,
			GroupIDs:      member.GroupIDs,
			AllowAnyone:   true,
			AllowLoggedIn: !member.Anonymous(),
		})
		if err != nil {
			logger.Error(failedToFetchGroupGrantedIDs, err)
			return nil, err
		}
		for _, id := range granted {
			result[id] = true
		}
	}

	// A record inheriting with no parent never grants on its own; the
	// default policy decides.
	if len(rootInheritIDs) > 0 && r.policyAllows(op, member) {
		for _, id := range rootInheritIDs {
			result[id] = true
		}
	}

	if len(inheritingByParent) > 0 {
		parentIDs := make([]int64, 0, len(inheritingByParent))
		parentAncestry := make(ancestry, len(inheritingByParent))

		for parentID, children := range inheritingByParent {
			chain := make(map[int64]struct{}, len(children)+1)
			for _, childID := range children {
				for id := range visiting[childID] {
					chain[id] = struct{}{}
				}
				chain[childID] = struct{}{}
			}

			if _, ok := chain[parentID]; ok {
				err := errdefs.NewErrCycleDetected(parentID)
				logger.Error(cycleDetected, err, logx.Data{
					Key:   "record_id",
					Value: parentID,
				})
				return nil, err
			}

			parentIDs = append(parentIDs, parentID)
			parentAncestry[parentID] = chain
		}

		parentResults, err := r.batchCheck(ctx, logger, op, parentIDs, member, nil, true, parentAncestry)
		if err != nil {
			return nil, err
		}

		for parentID, children := range inheritingByParent {
			if !parentResults[parentID] {
				continue
			}
			for _, id := range children {
				result[id] = true
			}
		}
	}

	return result, nil
}

func (r *Resolver) resolveDelete(
	ctx context.Context,
	logger logx.Logger,
	ids []int64,
	member permissions.Member,
	useCache bool,
	visiting ancestry,
) (map[int64]bool, error) {
	ids = filterIDs(ids)

	result := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = false
	}

	if member.Anonymous() {
		return result, nil
	}

	if useCache {
		cached, missing := r.cache.get(permissions.Delete, member.ID, ids)
		r.incr(metricCacheHits, int64(len(ids)-len(missing)))
		r.incr(metricCacheMisses, int64(len(missing)))

		if len(missing) == 0 {
			return cached, nil
		}

		computed, err := r.resolveDelete(ctx, logger, missing, member, false, visiting)
		if err != nil {
			return nil, err
		}
		for id, allowed := range computed {
			cached[id] = allowed
		}
		return cached, nil
	}

	editable, err := r.batchCheck(ctx, logger, permissions.Edit, ids, member, r.globalEditPermissions, true, nil)
	if err != nil {
		return nil, err
	}

	var editableIDs []int64
	for _, id := range ids {
		if editable[id] {
			editableIDs = append(editableIDs, id)
		}
	}

	if len(editableIDs) > 0 {
		children, err := r.repo.FetchChildren(ctx, logger, repos.ChildrenQuery{ParentIDs: editableIDs})
		if err != nil {
			logger.Error(failedToFetchChildren, err)
			return nil, err
		}

		childIDsByParent := make(map[int64][]int64, len(editableIDs))
		for _, child := range children {
			childIDsByParent[child.ParentID] = append(childIDsByParent[child.ParentID], child.ID)
		}

		// Leaf shortcut: editable with no children means deletable.
		var parentsWithChildren []int64
		for _, id := range editableIDs {
			if len(childIDsByParent[id]) == 0 {
				result[id] = true
			} else {
				parentsWithChildren = append(parentsWithChildren, id)
			}
		}

		if len(parentsWithChildren) > 0 {
			childAncestry := make(ancestry)
			var childIDs []int64

			for _, id := range parentsWithChildren {
				for _, childID := range childIDsByParent[id] {
					_, onChain := visiting[id][childID]
					if onChain || childID == id {
						err := errdefs.NewErrCycleDetected(childID)
						logger.Error(cycleDetected, err, logx.Data{
							Key:   "record_id",
							Value: childID,
						})
						return nil, err
					}

					chain, ok := childAncestry[childID]
					if !ok {
						chain = make(map[int64]struct{}, len(visiting[id])+1)
						childAncestry[childID] = chain
						childIDs = append(childIDs, childID)
					}
					for ancestorID := range visiting[id] {
						chain[ancestorID] = struct{}{}
					}
					chain[id] = struct{}{}
				}
			}

			childResults, err := r.resolveDelete(ctx, logger, childIDs, member, true, childAncestry)
			if err != nil {
				return nil, err
			}

			for _, id := range parentsWithChildren {
				deletable := true
				for _, childID := range childIDsByParent[id] {
					if !childResults[childID] {
						deletable = false
						break
					}
				}
				result[id] = deletable
			}
		}
	}

	r.cache.put(permissions.Delete, member.ID, result)
	return result, nil
}

func (r *Resolver) policyAllows(op permissions.Operation, member permissions.Member) bool {
	if r.policy == nil {
		return false
	}

	switch op {
	case permissions.View:
		return r.policy.CanView(member)
	case permissions.Edit:
		return r.policy.CanEdit(member)
	case permissions.Delete:
		return r.policy.CanDelete(member)
	default:
		return false
	}
}

func (r *Resolver) hasCapability(member permissions.Member, perms []string) bool {
	if r.capabilities == nil {
		return false
	}
	return r.capabilities.HasCapability(member, perms)
}

func (r *Resolver) incr(metric string, value int64) {
	if r.statter == nil || value == 0 {
		return
	}
	r.statter.Inc(metric, value)
}

func (r *Resolver) timeResolve(start time.Time) {
	if r.statter == nil {
		return
	}
	r.statter.TimingDuration(metricResolveDuration, time.Since(start))
}

func (r *Resolver) logDecision(ctx context.Context, op permissions.Operation, id int64, member permissions.Member, allowed bool) {
	if r.securityLogger == nil {
		return
	}

	r.securityLogger.Log(ctx, "PermissionCheck", op.String(),
		logx.SecurityData{Key: "record_id", Value: strconv.FormatInt(id, 10)},
		logx.SecurityData{Key: "member_id", Value: strconv.FormatInt(member.ID, 10)},
		logx.SecurityData{Key: "allowed", Value: strconv.FormatBool(allowed)},
	)
}

// filterIDs drops non-positive IDs and duplicates, preserving order.
func filterIDs(ids []int64) []int64 {
	filtered := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))

	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		filtered = append(filtered, id)
	}

	return filtered
}
