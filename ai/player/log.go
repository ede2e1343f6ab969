package player

import (
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
)

// LogDepth is one completed iteration of the search, for serializing to a
// log file for debugging.
type LogDepth struct {
	Depth      int            `yaml:"depth"`
	Nodes      uint64         `yaml:"nodes"`
	Candidates []LogCandidate `yaml:"candidates"`
}

type LogCandidate struct {
	Move  string `yaml:"move"`
	Score int    `yaml:"score"`
}

func (p *SearchPlayer) logDepth(depth int, cands []board.Coord, scores []int) {
	if p.logStream == nil {
		return
	}
	entry := LogDepth{Depth: depth, Nodes: p.solver.Nodes()}
	for i, c := range cands {
		entry.Candidates = append(entry.Candidates, LogCandidate{Move: c.String(), Score: scores[i]})
	}
	// a one-element sequence per depth, so the whole stream reads back
	// as a single YAML list.
	out, err := yaml.Marshal([]LogDepth{entry})
	if err != nil {
		log.Err(err).Msg("marshal-log-depth")
		return
	}
	if _, err := p.logStream.Write(out); err != nil {
		log.Err(err).Msg("write-log-depth")
	}
}
