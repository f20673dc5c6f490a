package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/neobotlabs/neobot/app/entity"
	"github.com/neobotlabs/neobot/app/factory"
	"github.com/neobotlabs/neobot/config"
)

// Session wraps the live gateway connection. All member/role/message
// operations go through here and are expected to run on the bot runtime via
// the dispatcher, never directly from an HTTP handler.
type Session struct {
	session *discordgo.Session
	cfg     config.DiscordConfig
	logger  logrus.FieldLogger
}

func NewSession(cfg config.DiscordConfig) (*Session, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages

	return &Session{
		session: s,
		cfg:     cfg,
		logger:  factory.NewModuleLogger("discord-session"),
	}, nil
}

// Open connects to the gateway. An authentication failure here is fatal to
// startup; the caller decides.
func (s *Session) Open() error {
	return s.session.Open()
}

func (s *Session) Close() error {
	return s.session.Close()
}

func (s *Session) GuildByID(guildID string) (*entity.Guild, error) {
	guild, err := s.session.State.Guild(guildID)
	if err != nil {
		guild, err = s.session.Guild(guildID)
		if err != nil {
			return nil, err
		}
	}
	return &entity.Guild{ID: guild.ID, Name: guild.Name}, nil
}

// MemberByID fetches the member from the API rather than the state cache so
// that buyers who joined after the last sync are still found.
func (s *Session) MemberByID(guildID, userID string) (*entity.Member, error) {
	member, err := s.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, err
	}
	username := ""
	if member.User != nil {
		username = member.User.Username
	}
	return &entity.Member{ID: userID, Username: username, RoleIDs: member.Roles}, nil
}

func (s *Session) RoleByID(guildID, roleID string) (*entity.Role, error) {
	if role, err := s.session.State.Role(guildID, roleID); err == nil {
		return &entity.Role{ID: role.ID, Name: role.Name}, nil
	}
	roles, err := s.session.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if role.ID == roleID {
			return &entity.Role{ID: role.ID, Name: role.Name}, nil
		}
	}
	return nil, fmt.Errorf("role %s not found in guild %s", roleID, guildID)
}

func (s *Session) GrantRole(guildID, userID, roleID string) error {
	return s.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (s *Session) SendDirectMessage(userID, content string) error {
	channel, err := s.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.session.ChannelMessageSend(channel.ID, content)
	return err
}

func (s *Session) SendSaleAudit(channelID string, sale *entity.SaleAudit) error {
	embed := &discordgo.MessageEmbed{
		Title:       "🎉 Sale completed",
		Description: fmt.Sprintf("<@%s> purchased the **%s** role.", sale.MemberID, sale.RoleName),
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Amount paid", Value: fmt.Sprintf("R$ %.2f", sale.TransactionAmount), Inline: true},
			{Name: "Payment ID", Value: sale.PaymentID, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "User ID: " + sale.MemberID},
	}
	_, err := s.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
