package persona

import (
	"math/rand/v2"
	"sync"
)

type Persona string

const (
	Brainstormer Persona = "brainstormer"
	Critic       Persona = "critic"
	Developer    Persona = "developer"
	Designer     Persona = "designer"
	Professor    Persona = "professor"
)

const DefaultPersona = Brainstormer

type Profile struct {
	Value       Persona `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

var profiles = []Profile{
	{Value: Brainstormer, Label: "Brainstormer", Description: "Creative & idea-focused"},
	{Value: Critic, Label: "Critic", Description: "Analytical & detailed"},
	{Value: Developer, Label: "Developer", Description: "Technical & practical"},
	{Value: Designer, Label: "Designer", Description: "Visual & aesthetic"},
	{Value: Professor, Label: "Professor", Description: "Educational & thorough"},
}

func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Parse reports whether s names a known persona.
func Parse(s string) (Persona, bool) {
	p := Persona(s)
	_, ok := responses[p]
	return p, ok
}

// RandSource picks an index in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

type Responder struct {
	mu  sync.Mutex
	rng RandSource
}

// NewResponder uses rng for every choice; nil means the process-wide source.
func NewResponder(rng RandSource) *Responder {
	if rng == nil {
		rng = globalSource{}
	}
	return &Responder{rng: rng}
}

// Respond returns one canned reply from the persona's pool. The input only
// triggers the call; it never changes the pool. Unknown personas use the
// default pool.
func (r *Responder) Respond(input string, p Persona) string {
	pool, ok := responses[p]
	if !ok {
		pool = responses[DefaultPersona]
	}

	r.mu.Lock()
	idx := r.rng.IntN(len(pool))
	r.mu.Unlock()

	return pool[idx]
}

// Pool returns a copy of the replies a persona can produce.
func Pool(p Persona) []string {
	pool, ok := responses[p]
	if !ok {
		pool = responses[DefaultPersona]
	}
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}
