package web

import (
	"context"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/adapters/storage"
	accessLogStore "gymdash/internal/adapters/storage/accesslog"
	checkInStore "gymdash/internal/adapters/storage/checkin"
	memberStore "gymdash/internal/adapters/storage/member"
	paymentStore "gymdash/internal/adapters/storage/payment"
	productStore "gymdash/internal/adapters/storage/product"
	saleStore "gymdash/internal/adapters/storage/sale"
	scheduleStore "gymdash/internal/adapters/storage/schedule"
	trainerStore "gymdash/internal/adapters/storage/trainer"
	"gymdash/internal/application/catalog"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/application/projections"
	"gymdash/internal/domain/accesslog"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/sale"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
)

// registerKinds builds the handler for every entity kind.
func (s *Server) registerKinds() map[string]resourceHandler {
	st := s.stores
	return map[string]resourceHandler{
		entity.KindMembers.String(): &resource[member.Member]{
			s:    s,
			spec: catalog.Members(),
			list: func(ctx context.Context, fr string) ([]member.Member, error) {
				return st.MemberStore.List(ctx, memberStore.ListFilter{FranchiseID: fr})
			},
			get: st.MemberStore.GetByID,
			save: func(ctx context.Context, id string, v member.Member) (member.Member, error) {
				return orchestrators.ExecuteSaveMember(ctx, id, v, s.saveDeps())
			},
			setFranchise: func(v *member.Member, fr string) { v.FranchiseID = fr },
		},
		entity.KindTrainers.String(): &resource[trainer.Trainer]{
			s:    s,
			spec: catalog.Trainers(),
			list: func(ctx context.Context, fr string) ([]trainer.Trainer, error) {
				return st.TrainerStore.List(ctx, trainerStore.ListFilter{FranchiseID: fr})
			},
			get: st.TrainerStore.GetByID,
			save: func(ctx context.Context, id string, v trainer.Trainer) (trainer.Trainer, error) {
				return orchestrators.ExecuteSaveTrainer(ctx, id, v, s.saveDeps())
			},
			setFranchise: func(v *trainer.Trainer, fr string) { v.FranchiseID = fr },
		},
		entity.KindProducts.String(): &resource[product.Product]{
			s:    s,
			spec: catalog.Products(),
			list: func(ctx context.Context, fr string) ([]product.Product, error) {
				return st.ProductStore.List(ctx, productStore.ListFilter{FranchiseID: fr})
			},
			get: st.ProductStore.GetByID,
			save: func(ctx context.Context, id string, v product.Product) (product.Product, error) {
				return orchestrators.ExecuteSaveProduct(ctx, id, v, s.saveDeps())
			},
			setFranchise: func(v *product.Product, fr string) { v.FranchiseID = fr },
		},
		entity.KindScheduleEvents.String(): &resource[schedule.Event]{
			s:    s,
			spec: catalog.ScheduleEvents(),
			list: func(ctx context.Context, fr string) ([]schedule.Event, error) {
				return st.ScheduleStore.List(ctx, scheduleStore.ListFilter{FranchiseID: fr})
			},
			get: st.ScheduleStore.GetByID,
			save: func(ctx context.Context, id string, v schedule.Event) (schedule.Event, error) {
				return orchestrators.ExecuteSaveEvent(ctx, id, v, s.saveDeps())
			},
			setFranchise: func(v *schedule.Event, fr string) { v.FranchiseID = fr },
		},
		entity.KindFranchises.String(): &resource[franchise.Franchise]{
			s:    s,
			spec: catalog.Franchises(),
			list: func(ctx context.Context, _ string) ([]franchise.Franchise, error) {
				return st.FranchiseStore.List(ctx, "")
			},
			get: st.FranchiseStore.GetByID,
			save: func(ctx context.Context, id string, v franchise.Franchise) (franchise.Franchise, error) {
				return orchestrators.ExecuteSaveFranchise(ctx, id, v, s.saveDeps())
			},
			adminWrites: true,
		},
		entity.KindCheckIns.String(): &resource[checkin.CheckIn]{
			s:    s,
			spec: catalog.CheckIns(),
			list: func(ctx context.Context, fr string) ([]checkin.CheckIn, error) {
				return st.CheckInStore.List(ctx, checkInStore.ListFilter{FranchiseID: fr})
			},
			get:      st.CheckInStore.GetByID,
			record:   s.recordCheckIn,
			memberOf: func(c checkin.CheckIn) string { return c.MemberID },
		},
		entity.KindPayments.String(): &resource[payment.Payment]{
			s:    s,
			spec: catalog.Payments(),
			list: func(ctx context.Context, fr string) ([]payment.Payment, error) {
				return st.PaymentStore.List(ctx, paymentStore.ListFilter{FranchiseID: fr})
			},
			get:      st.PaymentStore.GetByID,
			record:   s.recordPayment,
			memberOf: func(p payment.Payment) string { return p.MemberID },
		},
		entity.KindSales.String(): &resource[sale.Sale]{
			s:    s,
			spec: catalog.Sales(),
			list: func(ctx context.Context, fr string) ([]sale.Sale, error) {
				return st.SaleStore.List(ctx, saleStore.ListFilter{FranchiseID: fr})
			},
			get:    st.SaleStore.GetByID,
			record: s.recordSale,
		},
		entity.KindAccessLogs.String(): &resource[accesslog.Log]{
			s:    s,
			spec: catalog.AccessLogs(),
			list: func(ctx context.Context, _ string) ([]accesslog.Log, error) {
				return st.AccessLogStore.List(ctx, accessLogStore.ListFilter{})
			},
			get:      st.AccessLogStore.GetByID,
			record:   s.recordAccessAttempt,
			memberOf: func(l accesslog.Log) string { return l.MemberID },
		},
	}
}

// franchiseMembers returns the IDs of members in franchiseID.
func (s *Server) franchiseMembers(ctx context.Context, franchiseID string) (map[string]bool, error) {
	members, err := s.stores.MemberStore.List(ctx, memberStore.ListFilter{FranchiseID: franchiseID})
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(members))
	for _, m := range members {
		ids[m.ID] = true
	}
	return ids, nil
}

// requireMember hides members outside the caller's franchise.
func (s *Server) requireMember(ctx context.Context, memberID string) error {
	scope := middleware.FranchiseScope(ctx)
	if scope == "" {
		return nil
	}
	m, err := s.stores.MemberStore.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if m.FranchiseID != scope {
		return storage.NotFound("member", memberID)
	}
	return nil
}

func (s *Server) recordCheckIn(ctx context.Context, raw []byte) (any, error) {
	var in orchestrators.CheckInMemberInput
	if err := strictDecode(raw, &in); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, in.MemberID); err != nil {
		return nil, err
	}
	return orchestrators.ExecuteCheckInMember(ctx, in, s.checkInDeps())
}

func (s *Server) recordPayment(ctx context.Context, raw []byte) (any, error) {
	var p payment.Payment
	if err := strictDecode(raw, &p); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, p.MemberID); err != nil {
		return nil, err
	}
	return orchestrators.ExecuteRecordPayment(ctx, p, s.paymentDeps())
}

func (s *Server) recordSale(ctx context.Context, raw []byte) (any, error) {
	var in orchestrators.CheckoutInput
	if err := strictDecode(raw, &in); err != nil {
		return nil, err
	}
	if scope := middleware.FranchiseScope(ctx); scope != "" {
		in.FranchiseID = scope
	}
	if in.Cashier == "" {
		if sess, ok := middleware.GetSessionFromContext(ctx); ok {
			in.Cashier = sess.Email
		}
	}
	return orchestrators.ExecuteCheckout(ctx, in, s.checkoutDeps())
}

func (s *Server) recordAccessAttempt(ctx context.Context, raw []byte) (any, error) {
	var in orchestrators.AccessAttemptInput
	if err := strictDecode(raw, &in); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, in.MemberID); err != nil {
		return nil, err
	}
	return orchestrators.ExecuteAccessAttempt(ctx, in, orchestrators.AccessAttemptDeps{
		MemberStore:    s.stores.MemberStore,
		AccessLogStore: s.stores.AccessLogStore,
		Rules:          s.rules,
		Logger:         s.logger,
		Now:            s.now,
	})
}

// --- orchestrator dependencies ---

func (s *Server) saveDeps() orchestrators.SaveDeps {
	return orchestrators.SaveDeps{
		Members:    s.stores.MemberStore,
		Trainers:   s.stores.TrainerStore,
		Products:   s.stores.ProductStore,
		Schedule:   s.stores.ScheduleStore,
		Franchises: s.stores.FranchiseStore,
		Cache:      s.cache,
		Logger:     s.logger,
		Now:        s.now,
	}
}

func (s *Server) checkInDeps() orchestrators.CheckInMemberDeps {
	return orchestrators.CheckInMemberDeps{
		MemberStore:  s.stores.MemberStore,
		CheckInStore: s.stores.CheckInStore,
		Cache:        s.cache,
		Logger:       s.logger,
		Now:          s.now,
	}
}

func (s *Server) paymentDeps() orchestrators.PaymentDeps {
	return orchestrators.PaymentDeps{
		PaymentStore: s.stores.PaymentStore,
		MemberStore:  s.stores.MemberStore,
		Cache:        s.cache,
		Logger:       s.logger,
		Now:          s.now,
	}
}

func (s *Server) checkoutDeps() orchestrators.CheckoutDeps {
	return orchestrators.CheckoutDeps{
		ProductStore: s.stores.ProductStore,
		SaleStore:    s.stores.SaleStore,
		Cache:        s.cache,
		Logger:       s.logger,
		Now:          s.now,
	}
}

func (s *Server) enrollDeps() orchestrators.EnrollDeps {
	return orchestrators.EnrollDeps{
		ScheduleStore: s.stores.ScheduleStore,
		Cache:         s.cache,
		Logger:        s.logger,
	}
}

func (s *Server) alertsDeps() orchestrators.AlertsDeps {
	return orchestrators.AlertsDeps{
		ProductStore:  s.stores.ProductStore,
		PaymentStore:  s.stores.PaymentStore,
		MemberStore:   s.stores.MemberStore,
		ScheduleStore: s.stores.ScheduleStore,
		OutboxStore:   s.stores.OutboxStore,
		Config:        s.cfg.Alerts,
		Logger:        s.logger,
		Now:           s.now,
	}
}

func (s *Server) dashboardDeps() projections.DashboardDeps {
	return projections.DashboardDeps{
		MemberStore:   s.stores.MemberStore,
		CheckInStore:  s.stores.CheckInStore,
		PaymentStore:  s.stores.PaymentStore,
		ProductStore:  s.stores.ProductStore,
		ScheduleStore: s.stores.ScheduleStore,
		Cache:         s.cache,
		TTL:           s.cfg.Redis.TTL,
		Logger:        s.logger,
	}
}
