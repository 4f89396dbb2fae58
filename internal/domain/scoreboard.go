package domain

// Scoreboard is the record shared between all connected clients.
type Scoreboard struct {
	GameInning  int    `json:"game_inning"`
	Top         bool   `json:"top"`
	FirstBase   bool   `json:"first_base"`
	SecondBase  bool   `json:"second_base"`
	ThirdBase   bool   `json:"third_base"`
	BallCnt     int    `json:"ball_cnt"`
	StrikeCnt   int    `json:"strike_cnt"`
	OutCnt      int    `json:"out_cnt"`
	ScoreTop    int    `json:"score_top"`
	ScoreBottom int    `json:"score_bottom"`
	GameTitle   string `json:"game_title"`
	TeamTop     string `json:"team_top"`
	TeamBottom  string `json:"team_bottom"`
	LastInning  int    `json:"last_inning"`
}
