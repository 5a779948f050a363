package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/model"
)

// GraphQLClient implements Source against the catalog's GraphQL endpoint.
type GraphQLClient struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewGraphQLClient builds a client for the given endpoint URL.
func NewGraphQLClient(url string, timeout time.Duration, log zerolog.Logger) *GraphQLClient {
	c := resty.New().
		SetBaseURL(url).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &GraphQLClient{http: c, log: log}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute posts one query and unmarshals the data payload into out.
func (c *GraphQLClient) execute(ctx context.Context, query string, vars map[string]any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&gqlRequest{Query: query, Variables: vars}).
		Post("")
	if err != nil {
		return fmt.Errorf("catalog request: %w: %v", model.ErrProvider, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("catalog status %d: %w", resp.StatusCode(), model.ErrProvider)
	}
	var env gqlEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("catalog decode: %w: %v", model.ErrProvider, err)
	}
	if len(env.Errors) > 0 {
		return fmt.Errorf("catalog query: %w: %s", model.ErrProvider, env.Errors[0].Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("catalog data decode: %w: %v", model.ErrProvider, err)
	}
	return nil
}

// --- wire shapes (GraphQL serves ids as strings) ---

type gqlRef struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type gqlEpisode struct {
	ID         *string    `json:"id"`
	Name       string     `json:"name"`
	AirDate    string     `json:"air_date"`
	Episode    string     `json:"episode"`
	Characters []gqlChar  `json:"characters"`
	Created    string     `json:"created"`
}

type gqlChar struct {
	ID       *string      `json:"id"`
	Name     string       `json:"name"`
	Status   string       `json:"status"`
	Species  string       `json:"species"`
	Type     string       `json:"type"`
	Gender   string       `json:"gender"`
	Origin   *gqlRef      `json:"origin"`
	Location *gqlRef      `json:"location"`
	Image    string       `json:"image"`
	Episode  []gqlEpisode `json:"episode"`
	Created  string       `json:"created"`
}

type gqlLocation struct {
	ID        *string   `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Dimension string    `json:"dimension"`
	Residents []gqlChar `json:"residents"`
}

type gqlPageInfo struct {
	Count int  `json:"count"`
	Pages int  `json:"pages"`
	Next  *int `json:"next"`
}

// --- mapping: total functions with parse-time defaults ---

func refID(r *gqlRef) string {
	if r == nil || r.ID == nil {
		return ""
	}
	return *r.ID
}

func refName(r *gqlRef) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func parseID(s *string) int {
	if s == nil {
		return 0
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return 0
	}
	return n
}

func mapCharacter(in gqlChar) model.Character {
	out := model.Character{
		ID:       parseID(in.ID),
		Name:     orDefault(in.Name, "Unknown"),
		Status:   orDefault(in.Status, "Unknown"),
		Species:  orDefault(in.Species, "Unknown"),
		Type:     in.Type,
		Gender:   orDefault(in.Gender, "Unknown"),
		Origin:   model.Reference{ID: refID(in.Origin), Name: refName(in.Origin)},
		Location: model.Reference{ID: refID(in.Location), Name: refName(in.Location)},
		Image:    in.Image,
		Created:  in.Created,
	}
	for _, ep := range in.Episode {
		ref := ep.Episode
		if ref == "" && ep.ID != nil {
			ref = *ep.ID
		}
		if ref != "" {
			out.EpisodeRefs = append(out.EpisodeRefs, ref)
		}
		// Full episode objects carry both id and name.
		if ep.ID != nil && ep.Name != "" {
			out.Episodes = append(out.Episodes, mapEpisode(ep))
		}
	}
	return out
}

func mapEpisode(in gqlEpisode) model.Episode {
	out := model.Episode{
		ID:             parseID(in.ID),
		Name:           orDefault(in.Name, "Unknown"),
		AirDate:        in.AirDate,
		Code:           in.Episode,
		CharacterCount: len(in.Characters),
		Created:        in.Created,
	}
	for _, ch := range in.Characters {
		// Id-only projections stay as a count; full objects are mapped.
		if ch.Name != "" {
			out.Characters = append(out.Characters, mapCharacter(ch))
		}
	}
	return out
}

func mapLocation(in gqlLocation) model.Location {
	out := model.Location{
		ID:            parseID(in.ID),
		Name:          orDefault(in.Name, "Unknown"),
		Type:          in.Type,
		Dimension:     in.Dimension,
		ResidentCount: len(in.Residents),
	}
	for _, ch := range in.Residents {
		if ch.Name != "" {
			out.Residents = append(out.Residents, mapCharacter(ch))
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// --- queries ---

const characterFields = `
    id
    name
    status
    species
    type
    gender
    origin { name id }
    location { name id }
    image
    episode { id name air_date episode }
    created`

const queryCharacter = `
query GetCharacter($id: ID!) {
    character(id: $id) {` + characterFields + `
    }
}`

const queryCharactersByIDs = `
query GetCharacters($ids: [ID!]!) {
    charactersByIds(ids: $ids) {` + characterFields + `
    }
}`

const queryCharactersPage = `
query GetCharactersPage($page: Int) {
    characters(page: $page) {
        info { pages count next }
        results {
            id
            name
            status
            species
            type
            gender
            origin { name id }
            location { name id }
            image
            episode { episode }
            created
        }
    }
}`

const queryLocation = `
query GetLocation($id: ID!) {
    location(id: $id) {
        id
        name
        type
        dimension
        residents {` + characterFields + `
        }
    }
}`

const queryLocationsPage = `
query GetLocationsPage($page: Int) {
    locations(page: $page) {
        info { pages count next }
        results {
            id
            name
            type
            dimension
            residents { id }
        }
    }
}`

const queryEpisode = `
query GetEpisode($id: ID!) {
    episode(id: $id) {
        id
        name
        air_date
        episode
        characters {` + characterFields + `
        }
    }
}`

const queryEpisodesPage = `
query GetEpisodesPage($page: Int) {
    episodes(page: $page) {
        info { pages count next }
        results {
            id
            name
            air_date
            episode
            characters { id }
        }
    }
}`

// --- Source implementation ---

func (c *GraphQLClient) GetCharacter(ctx context.Context, id int) (*model.Character, error) {
	var out struct {
		Character *gqlChar `json:"character"`
	}
	if err := c.execute(ctx, queryCharacter, map[string]any{"id": strconv.Itoa(id)}, &out); err != nil {
		return nil, err
	}
	if out.Character == nil || out.Character.ID == nil {
		return nil, fmt.Errorf("character %d: %w", id, model.ErrNotFound)
	}
	ch := mapCharacter(*out.Character)
	return &ch, nil
}

func (c *GraphQLClient) GetCharacters(ctx context.Context, ids []int) ([]model.Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.Itoa(id)
	}
	var out struct {
		CharactersByIds []gqlChar `json:"charactersByIds"`
	}
	if err := c.execute(ctx, queryCharactersByIDs, map[string]any{"ids": strIDs}, &out); err != nil {
		return nil, err
	}
	chars := make([]model.Character, 0, len(out.CharactersByIds))
	for _, gc := range out.CharactersByIds {
		if gc.ID == nil {
			continue
		}
		chars = append(chars, mapCharacter(gc))
	}
	return chars, nil
}

func (c *GraphQLClient) GetCharactersPage(ctx context.Context, page int) ([]model.Character, int, error) {
	var out struct {
		Characters struct {
			Info    gqlPageInfo `json:"info"`
			Results []gqlChar   `json:"results"`
		} `json:"characters"`
	}
	if err := c.execute(ctx, queryCharactersPage, map[string]any{"page": page}, &out); err != nil {
		return nil, 0, err
	}
	chars := make([]model.Character, 0, len(out.Characters.Results))
	for _, gc := range out.Characters.Results {
		if gc.ID == nil {
			continue
		}
		chars = append(chars, mapCharacter(gc))
	}
	return chars, out.Characters.Info.Count, nil
}

func (c *GraphQLClient) GetLocation(ctx context.Context, id int) (*model.Location, error) {
	var out struct {
		Location *gqlLocation `json:"location"`
	}
	if err := c.execute(ctx, queryLocation, map[string]any{"id": strconv.Itoa(id)}, &out); err != nil {
		return nil, err
	}
	if out.Location == nil || out.Location.ID == nil {
		return nil, fmt.Errorf("location %d: %w", id, model.ErrNotFound)
	}
	loc := mapLocation(*out.Location)
	return &loc, nil
}

func (c *GraphQLClient) GetLocationsPage(ctx context.Context, page int) ([]model.Location, int, error) {
	var out struct {
		Locations struct {
			Info    gqlPageInfo   `json:"info"`
			Results []gqlLocation `json:"results"`
		} `json:"locations"`
	}
	if err := c.execute(ctx, queryLocationsPage, map[string]any{"page": page}, &out); err != nil {
		return nil, 0, err
	}
	locs := make([]model.Location, 0, len(out.Locations.Results))
	for _, gl := range out.Locations.Results {
		if gl.ID == nil {
			continue
		}
		locs = append(locs, mapLocation(gl))
	}
	return locs, out.Locations.Info.Count, nil
}

func (c *GraphQLClient) GetEpisode(ctx context.Context, id int) (*model.Episode, error) {
	var out struct {
		Episode *gqlEpisode `json:"episode"`
	}
	if err := c.execute(ctx, queryEpisode, map[string]any{"id": strconv.Itoa(id)}, &out); err != nil {
		return nil, err
	}
	if out.Episode == nil || out.Episode.ID == nil {
		return nil, fmt.Errorf("episode %d: %w", id, model.ErrNotFound)
	}
	ep := mapEpisode(*out.Episode)
	return &ep, nil
}

func (c *GraphQLClient) GetEpisodeWithCharacters(ctx context.Context, id int) (*model.Episode, []model.Character, error) {
	ep, err := c.GetEpisode(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return ep, ep.Characters, nil
}

func (c *GraphQLClient) GetEpisodesPage(ctx context.Context, page int) ([]model.Episode, int, error) {
	var out struct {
		Episodes struct {
			Info    gqlPageInfo  `json:"info"`
			Results []gqlEpisode `json:"results"`
		} `json:"episodes"`
	}
	if err := c.execute(ctx, queryEpisodesPage, map[string]any{"page": page}, &out); err != nil {
		return nil, 0, err
	}
	eps := make([]model.Episode, 0, len(out.Episodes.Results))
	for _, ge := range out.Episodes.Results {
		if ge.ID == nil {
			continue
		}
		eps = append(eps, mapEpisode(ge))
	}
	return eps, out.Episodes.Info.Count, nil
}

var _ Source = (*GraphQLClient)(nil)
