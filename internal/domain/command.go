package domain

type CommandType string

const (
	CommandRecommend CommandType = "recommend"
	CommandQuery     CommandType = "query"
	CommandRandom    CommandType = "random"
	CommandDetails   CommandType = "details"
	CommandStats     CommandType = "stats"
	CommandDiag      CommandType = "diag"
	CommandHelp      CommandType = "help"
	CommandUnknown   CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

func (c CommandType) IsValid() bool {
	switch c {
	case CommandRecommend, CommandQuery, CommandRandom, CommandDetails,
		CommandStats, CommandDiag, CommandHelp, CommandUnknown:
		return true
	default:
		return false
	}
}
