package discord

import (
	"bytes"
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/neobotlabs/neobot/app/entity"
)

const (
	buyCommandName = "buy"
	qrFileName     = "qr_code.png"
)

type purchaseInitiator interface {
	InitiatePurchase(ctx context.Context, providerName, userID, username string) (*entity.PurchaseInvoice, error)
}

// RegisterCommands installs the ready handler that registers the /buy slash
// command for the configured guild, and the interaction handler serving it.
// Call before Open.
func (s *Session) RegisterCommands(purchases purchaseInitiator, providerName string) {
	s.session.AddHandler(func(ds *discordgo.Session, r *discordgo.Ready) {
		s.logger.WithField("bot_user", r.User.Username).Info("gateway_ready")

		_, err := ds.ApplicationCommandCreate(r.User.ID, s.cfg.GuildID, &discordgo.ApplicationCommand{
			Name:        buyCommandName,
			Description: "Generates a Pix payment to purchase VIP access.",
		})
		if err != nil {
			s.logger.WithError(err).Error("command_registration_failed")
		}
	})

	s.session.AddHandler(func(ds *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if i.ApplicationCommandData().Name != buyCommandName {
			return
		}
		s.handleBuy(ds, i, purchases, providerName)
	})
}

// One synchronous round-trip to the processor per invocation; no polling, so
// the handler releases the event loop as soon as the payment exists.
func (s *Session) handleBuy(ds *discordgo.Session, i *discordgo.InteractionCreate, purchases purchaseInitiator, providerName string) {
	user := interactionUser(i)
	if user == nil {
		s.logger.Warn("buy_interaction_without_user")
		return
	}
	log := s.logger.WithField("user_id", user.ID)

	invoice, err := purchases.InitiatePurchase(context.Background(), providerName, user.ID, user.Username)
	if err != nil {
		// Full cause stays server-side; the buyer gets a generic notice.
		log.WithError(err).Error("purchase_initiation_failed")
		s.respondFailure(ds, i)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✨ VIP payment via Pix",
		Description: "Scan the QR code below with your bank app, or use the copy-paste code, to complete the purchase.",
		Color:       0x3498db,
		Image:       &discordgo.MessageEmbedImage{URL: "attachment://" + qrFileName},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Your role is granted automatically once the payment settles."},
	}
	err = ds.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Files: []*discordgo.File{{
				Name:        qrFileName,
				ContentType: "image/png",
				Reader:      bytes.NewReader(invoice.QRCodePNG),
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Error("buy_response_failed")
		return
	}

	_, err = ds.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: "**Pix copy-paste code:**\n```" + invoice.QRCodeText + "```",
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.WithError(err).Warn("copy_paste_followup_failed")
	}

	log.WithField("payment_id", invoice.PaymentID).Info("pix_invoice_sent")
}

func (s *Session) respondFailure(ds *discordgo.Session, i *discordgo.InteractionCreate) {
	err := ds.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ Sorry, something went wrong while generating your payment. Please try again later.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("failure_response_failed")
	}
}

// Guild interactions carry the user under Member; direct ones under User.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
