package quiz

import (
	"errors"
	"math/rand"
	"testing"

	"elephant-quiz/internal/models"
)

func testBank(n int) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:   uint(i + 1),
			Text: "question",
			Options: map[models.OptionLabel]string{
				models.OptionA: "a", models.OptionB: "b", models.OptionC: "c", models.OptionD: "d",
			},
			Answer: models.Labels[i%len(models.Labels)],
		}
	}
	return questions
}

func testConfig() Config {
	return Config{SessionLength: 10, TimeBudget: 30}
}

func mustStart(t *testing.T, seed int64) Session {
	t.Helper()
	s, err := Start(testBank(12), testConfig(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func wrongLabel(q models.Question) models.OptionLabel {
	for _, label := range models.Labels {
		if label != q.Answer {
			return label
		}
	}
	return models.Unanswered
}

func answerCorrect(t *testing.T, s Session) Session {
	t.Helper()
	q, ok := s.Current()
	if !ok {
		t.Fatalf("expected a current question, status %s", s.Status)
	}
	next, err := s.Answer(q.Answer)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	return next
}

func answerWrong(t *testing.T, s Session) Session {
	t.Helper()
	q, ok := s.Current()
	if !ok {
		t.Fatalf("expected a current question, status %s", s.Status)
	}
	next, err := s.Answer(wrongLabel(q))
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	return next
}

func TestStartInitialisesSession(t *testing.T) {
	s := mustStart(t, 1)

	if s.Status != models.StatusPlaying {
		t.Fatalf("expected playing, got %s", s.Status)
	}
	if len(s.Questions) != 10 || len(s.Answers) != 10 {
		t.Fatalf("expected 10 questions and answer slots, got %d/%d", len(s.Questions), len(s.Answers))
	}
	if s.Score != 0 || s.TimeRemaining != 30 || s.CurrentIndex != 0 {
		t.Fatalf("unexpected initial state: score=%d time=%d index=%d", s.Score, s.TimeRemaining, s.CurrentIndex)
	}
	seen := map[uint]bool{}
	for i, q := range s.Questions {
		if seen[q.ID] {
			t.Fatalf("question %d drawn twice", q.ID)
		}
		seen[q.ID] = true
		if s.Answers[i] != models.Unanswered {
			t.Fatalf("expected slot %d unanswered, got %q", i, s.Answers[i])
		}
	}
}

func TestStartIsDeterministicForSeed(t *testing.T) {
	a := mustStart(t, 42)
	b := mustStart(t, 42)
	if !sameOrder(a.Questions, b.Questions) {
		t.Fatalf("expected identical draws for identical seeds")
	}
}

func TestStartRejectsSmallBank(t *testing.T) {
	_, err := Start(testBank(9), testConfig(), rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrBankTooSmall) {
		t.Fatalf("expected ErrBankTooSmall, got %v", err)
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	cases := []Config{
		{SessionLength: 0, TimeBudget: 30},
		{SessionLength: 10, TimeBudget: 0},
		{SessionLength: -1, TimeBudget: -1},
	}
	for _, cfg := range cases {
		if _, err := Start(testBank(12), cfg, nil); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig for %+v, got %v", cfg, err)
		}
	}
}

func TestStartDoesNotReorderBank(t *testing.T) {
	bank := testBank(12)
	if _, err := Start(bank, testConfig(), rand.New(rand.NewSource(3))); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i, q := range bank {
		if q.ID != uint(i+1) {
			t.Fatalf("bank was modified at %d: id %d", i, q.ID)
		}
	}
}

func TestAnswerScoring(t *testing.T) {
	s := mustStart(t, 2)
	s = answerCorrect(t, s)
	s = answerWrong(t, s)
	s = answerWrong(t, s)

	if s.Score != -1 {
		t.Fatalf("expected score -1, got %d", s.Score)
	}
	if s.CurrentIndex != 3 {
		t.Fatalf("expected index 3, got %d", s.CurrentIndex)
	}
	if s.Answers[0] != s.Questions[0].Answer {
		t.Fatalf("expected slot 0 to hold the correct label")
	}
}

func TestScoreMayGoNegative(t *testing.T) {
	s := mustStart(t, 5)
	for i := 0; i < 10; i++ {
		s = answerWrong(t, s)
	}
	res, ok := s.Result()
	if !ok {
		t.Fatalf("expected result")
	}
	if res.Score != -10 || res.WrongCount != 10 {
		t.Fatalf("expected -10 with 10 wrong, got %+v", res)
	}
}

func TestAnswerDoesNotMutateReceiver(t *testing.T) {
	s := mustStart(t, 2)
	next := answerCorrect(t, s)
	if s.Answers[0] != models.Unanswered || s.Score != 0 || s.CurrentIndex != 0 {
		t.Fatalf("receiver changed after Answer")
	}
	if next.Answers[0] == models.Unanswered {
		t.Fatalf("expected next to record the answer")
	}
}

func TestAllCorrectFinishes(t *testing.T) {
	s := mustStart(t, 7)
	for i := 0; i < 10; i++ {
		s = answerCorrect(t, s)
	}

	if s.Status != models.StatusFinished {
		t.Fatalf("expected finished, got %s", s.Status)
	}
	res, ok := s.Result()
	if !ok {
		t.Fatalf("expected result")
	}
	if res.Score != 10 || res.CorrectCount != 10 || res.WrongCount != 0 || res.UnansweredCount != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.TimedOut {
		t.Fatalf("expected no timeout")
	}
	if s.TimeRemaining != 30 {
		t.Fatalf("timer should not have moved, got %d", s.TimeRemaining)
	}
}

func TestTimeoutExample(t *testing.T) {
	s := mustStart(t, 11)
	for i := 0; i < 6; i++ {
		s = answerCorrect(t, s)
	}
	for i := 0; i < 2; i++ {
		s = answerWrong(t, s)
	}
	for i := 0; i < 30; i++ {
		s = s.Tick()
	}

	if s.Status != models.StatusFinished || !s.TimedOut {
		t.Fatalf("expected timed out finish, got %s timedOut=%v", s.Status, s.TimedOut)
	}
	res, _ := s.Result()
	if res.Score != 4 || res.CorrectCount != 6 || res.WrongCount != 2 || res.UnansweredCount != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.CorrectCount+res.WrongCount+res.UnansweredCount != res.Total() {
		t.Fatalf("counts do not add up to total")
	}
}

func TestTickFinishesOnlyAtZero(t *testing.T) {
	s := mustStart(t, 1)
	for i := 0; i < 29; i++ {
		s = s.Tick()
	}
	if s.Status != models.StatusPlaying || s.TimeRemaining != 1 {
		t.Fatalf("expected playing with 1 left, got %s/%d", s.Status, s.TimeRemaining)
	}
	s = s.Tick()
	if s.Status != models.StatusFinished || s.TimeRemaining != 0 {
		t.Fatalf("expected finished at 0, got %s/%d", s.Status, s.TimeRemaining)
	}
}

func TestFinishedSessionIsFrozen(t *testing.T) {
	s := mustStart(t, 1)
	s = answerCorrect(t, s)
	for i := 0; i < 30; i++ {
		s = s.Tick()
	}

	after, err := s.Answer(models.OptionA)
	if !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v", err)
	}
	after = after.Tick()
	if after.Score != 1 || after.TimeRemaining != 0 || after.Answers[1] != models.Unanswered {
		t.Fatalf("finished session changed: %+v", after)
	}
}

func TestAnswerOutsidePlaying(t *testing.T) {
	var idle Session
	if idle.Status != models.StatusIdle {
		t.Fatalf("expected zero session to be idle")
	}
	if _, err := idle.Answer(models.OptionA); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v", err)
	}
	if got := idle.Tick(); got.Status != models.StatusIdle {
		t.Fatalf("tick changed idle session")
	}
}

func TestAnswerRejectsUnknownLabel(t *testing.T) {
	s := mustStart(t, 1)
	next, err := s.Answer("E")
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if next.CurrentIndex != 0 || next.Score != 0 {
		t.Fatalf("invalid label changed state")
	}
}

func TestAnswerAtRejectsStaleIndex(t *testing.T) {
	s := mustStart(t, 1)
	s = answerCorrect(t, s)

	if _, err := s.AnswerAt(0, models.OptionA); !errors.Is(err, ErrStaleQuestion) {
		t.Fatalf("expected ErrStaleQuestion, got %v", err)
	}
	if _, err := s.AnswerAt(5, models.OptionA); !errors.Is(err, ErrStaleQuestion) {
		t.Fatalf("expected ErrStaleQuestion, got %v", err)
	}
	next, err := s.AnswerAt(1, s.Questions[1].Answer)
	if err != nil {
		t.Fatalf("answer at current index: %v", err)
	}
	if next.Score != 2 {
		t.Fatalf("expected score 2, got %d", next.Score)
	}
}

func TestResetToIdle(t *testing.T) {
	s := mustStart(t, 1)
	if _, err := s.ResetToIdle(); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("expected ErrNotFinished while playing, got %v", err)
	}
	for i := 0; i < 30; i++ {
		s = s.Tick()
	}
	idle, err := s.ResetToIdle()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if idle.Status != models.StatusIdle {
		t.Fatalf("expected idle, got %s", idle.Status)
	}
	if _, ok := idle.Result(); ok {
		t.Fatalf("expected result to be discarded")
	}
}

func TestRestartResetsScoreAndTimer(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	s, err := Start(testBank(12), testConfig(), rng)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 4; i++ {
		s = answerCorrect(t, s)
	}
	for i := 0; i < 30; i++ {
		s = s.Tick()
	}

	next, err := Replay(s, testBank(12), testConfig(), rng)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if next.Score != 0 || next.TimeRemaining != 30 || next.Status != models.StatusPlaying || next.CurrentIndex != 0 {
		t.Fatalf("replay did not reset: %+v", next)
	}
	if _, ok := next.Result(); ok {
		t.Fatalf("replay must not carry the previous result")
	}
}

func TestReplayUsesDifferentOrder(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		prev, err := Start(testBank(12), testConfig(), rng)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		next, err := Replay(prev, testBank(12), testConfig(), rng)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if sameOrder(prev.Questions, next.Questions) {
			t.Fatalf("seed %d: replay reused the previous order", seed)
		}
	}
}

func TestReplayRedrawsRepeatedOrder(t *testing.T) {
	bank := testBank(2)
	cfg := Config{SessionLength: 2, TimeBudget: 5}
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		prev, err := Start(bank, cfg, rng)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		next, err := Replay(prev, bank, cfg, rng)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if sameOrder(prev.Questions, next.Questions) {
			t.Fatalf("seed %d: replay kept order %d,%d", seed, prev.Questions[0].ID, prev.Questions[1].ID)
		}
	}
}

func TestComputeResultInvariant(t *testing.T) {
	questions := testBank(5)
	answers := []models.OptionLabel{
		questions[0].Answer,
		wrongLabel(questions[1]),
		models.Unanswered,
		questions[3].Answer,
	}
	res := ComputeResult(questions, answers, 1)

	if res.CorrectCount != 2 || res.WrongCount != 1 || res.UnansweredCount != 2 {
		t.Fatalf("unexpected counts %+v", res)
	}
	if res.CorrectCount+res.WrongCount+res.UnansweredCount != len(questions) {
		t.Fatalf("counts do not add up")
	}
	if len(res.Answers) != len(questions) {
		t.Fatalf("expected answers padded to %d, got %d", len(questions), len(res.Answers))
	}
}

func TestRandomPlayInvariants(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		s, err := Start(testBank(12), testConfig(), rng)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		correct, wrong := 0, 0
		for s.Status == models.StatusPlaying {
			switch rng.Intn(3) {
			case 0:
				s = answerCorrect(t, s)
				correct++
			case 1:
				s = answerWrong(t, s)
				wrong++
			default:
				s = s.Tick()
			}
			if s.Score != correct-wrong {
				t.Fatalf("seed %d: score %d, want %d", seed, s.Score, correct-wrong)
			}
		}
		res, ok := s.Result()
		if !ok {
			t.Fatalf("seed %d: expected result", seed)
		}
		if res.CorrectCount != correct || res.WrongCount != wrong {
			t.Fatalf("seed %d: counts %d/%d, want %d/%d", seed, res.CorrectCount, res.WrongCount, correct, wrong)
		}
		if res.CorrectCount+res.WrongCount+res.UnansweredCount != res.Total() {
			t.Fatalf("seed %d: counts do not add up", seed)
		}
	}
}
