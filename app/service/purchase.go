package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/neobotlabs/neobot/app/dispatch"
	"github.com/neobotlabs/neobot/app/entity"
	"github.com/neobotlabs/neobot/app/factory"
	"github.com/neobotlabs/neobot/app/provider"
	"github.com/neobotlabs/neobot/app/types"
	"github.com/neobotlabs/neobot/config"
)

type gateway interface {
	GuildByID(guildID string) (*entity.Guild, error)
	MemberByID(guildID, userID string) (*entity.Member, error)
	RoleByID(guildID, roleID string) (*entity.Role, error)
	GrantRole(guildID, userID, roleID string) error
	SendDirectMessage(userID, content string) error
	SendSaleAudit(channelID string, sale *entity.SaleAudit) error
}

type taskDispatcher interface {
	Submit(task dispatch.Task) error
}

type PurchaseService struct {
	providers  *provider.Registry
	gateway    gateway
	dispatcher taskDispatcher
	discordCfg config.DiscordConfig
	vipCfg     config.VIPConfig
	logger     logrus.FieldLogger
}

func NewPurchaseService(
	providers *provider.Registry,
	gw gateway,
	dispatcher taskDispatcher,
	discordCfg config.DiscordConfig,
	vipCfg config.VIPConfig,
) *PurchaseService {
	return &PurchaseService{
		providers:  providers,
		gateway:    gw,
		dispatcher: dispatcher,
		discordCfg: discordCfg,
		vipCfg:     vipCfg,
		logger:     factory.NewModuleLogger("purchase-service"),
	}
}

// InitiatePurchase creates a Pix payment for the requesting user. The user id
// doubles as the external reference so the later webhook can re-associate the
// settled payment without any local state.
func (s *PurchaseService) InitiatePurchase(ctx context.Context, providerName, userID, username string) (*entity.PurchaseInvoice, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidRequest
	}

	providerClient, err := s.providers.Get(providerName)
	if err != nil {
		return nil, ErrProviderUnsupported
	}

	purchase := &entity.Purchase{
		UserID:         userID,
		CorrelationID:  userID,
		IdempotencyKey: uuid.NewString(),
		AmountCents:    s.vipCfg.PriceCents,
		PaymentMethod:  entity.PaymentMethodPix,
		Status:         entity.PurchaseRequested,
		CreatedAt:      time.Now().UTC(),
	}

	output, err := providerClient.CreatePixPayment(ctx, &provider.CreateInput{
		AmountCents:       purchase.AmountCents,
		Description:       s.vipCfg.Description,
		ExternalReference: purchase.CorrelationID,
		IdempotencyKey:    purchase.IdempotencyKey,
		PayerEmail:        userID + "@discord.com",
		PayerFirstName:    strings.TrimSpace(username),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentCreationFailed, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"payment_id": output.PaymentID,
	}).Info("pix_payment_created")

	return &entity.PurchaseInvoice{
		PaymentID:  output.PaymentID,
		QRCodePNG:  output.QRCodePNG,
		QRCodeText: output.QRCodeText,
	}, nil
}

// ProcessNotification handles one processor notification: fetch the
// authoritative payment state, and if approved hand delivery off to the bot
// runtime. The hand-off is fire-and-forget; a closed or full dispatcher is
// logged and dropped so the webhook can still acknowledge.
func (s *PurchaseService) ProcessNotification(ctx context.Context, providerName, paymentID string) error {
	providerClient, err := s.providers.Get(providerName)
	if err != nil {
		return ErrProviderUnsupported
	}

	record, err := providerClient.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentLookupFailed, err)
	}

	if !record.Approved() {
		s.logger.WithFields(logrus.Fields{
			"payment_id": record.ID,
			"status":     record.Status,
		}).Info("payment_not_approved")
		return nil
	}

	userID, err := types.ParseExternalReference(record.ExternalReference)
	if err != nil {
		return fmt.Errorf("%w: payment_id=%s reference=%q", ErrReferenceInvalid, record.ID, record.ExternalReference)
	}

	delivery := *record
	err = s.dispatcher.Submit(func(taskCtx context.Context) {
		if err := s.DeliverEntitlement(taskCtx, userID, &delivery); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("entitlement_delivery_failed")
		}
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id": record.ID,
			"user_id":    userID,
		}).Warn("delivery_task_dropped")
	}
	return nil
}

// DeliverEntitlement grants the VIP role and notifies the buyer. Runs on the
// bot runtime via the dispatcher, never on an HTTP handler goroutine. A
// missing guild, member, or role aborts without a user-visible error: the
// payment completed outside this system's control and there is nothing to
// retry against. Safe to call repeatedly for the same payment.
func (s *PurchaseService) DeliverEntitlement(ctx context.Context, userID string, record *entity.PaymentRecord) error {
	log := s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"payment_id": record.ID,
	})

	guild, err := s.gateway.GuildByID(s.discordCfg.GuildID)
	if err != nil {
		return fmt.Errorf("%w: guild %s: %v", ErrDeliveryTargetMissing, s.discordCfg.GuildID, err)
	}

	member, err := s.gateway.MemberByID(guild.ID, userID)
	if err != nil {
		// Covers buyers who paid and then left the server.
		return fmt.Errorf("%w: member %s: %v", ErrDeliveryTargetMissing, userID, err)
	}

	role, err := s.gateway.RoleByID(guild.ID, s.discordCfg.VIPRoleID)
	if err != nil {
		return fmt.Errorf("%w: role %s: %v", ErrDeliveryTargetMissing, s.discordCfg.VIPRoleID, err)
	}

	if member.HasRole(role.ID) {
		// Processor retries are not deduplicated; a repeat delivery for an
		// already-granted role is a no-op.
		log.Info("entitlement_already_delivered")
		return nil
	}

	if err := s.gateway.GrantRole(guild.ID, member.ID, role.ID); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	dm := fmt.Sprintf("✅ Payment confirmed! You received the **%s** role on **%s**.", role.Name, guild.Name)
	if err := s.gateway.SendDirectMessage(member.ID, dm); err != nil {
		// Best effort; the grant stands.
		log.WithError(err).Warn("confirmation_dm_failed")
	}

	if err := s.gateway.SendSaleAudit(s.discordCfg.LogChannelID, &entity.SaleAudit{
		GuildName:         guild.Name,
		RoleName:          role.Name,
		MemberID:          member.ID,
		Username:          member.Username,
		PaymentID:         record.ID,
		TransactionAmount: record.TransactionAmount,
	}); err != nil {
		log.WithError(err).Warn("sale_audit_failed")
	}

	log.WithField("amount", record.TransactionAmount).Info("entitlement_delivered")
	return nil
}
