package bot

import "github.com/bwmarrin/discordgo"

// commandDefinitions returns the slash commands the bot registers per guild
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "plex",
			Description: "Browse the Plex library",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "search",
					Description: "Search the library by title",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "query",
							Description: "Title to search for",
							Required:    true,
						},
						{
							Type:         discordgo.ApplicationCommandOptionString,
							Name:         "library",
							Description:  "Limit the search to one library",
							Autocomplete: true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "type",
							Description: "Limit the search to one media type",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Movies", Value: "movie"},
								{Name: "TV Shows", Value: "show"},
								{Name: "Music", Value: "artist"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "playing",
					Description: "Show active playback sessions",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "recent",
					Description: "Show recently added titles",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionString,
							Name:         "library",
							Description:  "Limit to one library",
							Autocomplete: true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "limit",
							Description: "How many titles to show (default 10)",
							MinValue:    &minRecentLimit,
							MaxValue:    maxRecentLimit,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show server and library statistics",
				},
			},
		},
		{
			Name:        "request",
			Description: "Request media through Overseerr",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "search",
					Description: "Search for a title to request",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "query",
							Description: "Title to search for",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show recent requests and their status",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "queue",
					Description: "Show requests awaiting approval (admin)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "approve",
					Description: "Approve a pending request (admin)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Request ID",
							Required:    true,
							MinValue:    &minRequestID,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "deny",
					Description: "Deny a pending request (admin)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Request ID",
							Required:    true,
							MinValue:    &minRequestID,
						},
					},
				},
			},
		},
	}
}

var (
	minRecentLimit float64 = 1
	minRequestID   float64 = 1
)

const maxRecentLimit float64 = 25
