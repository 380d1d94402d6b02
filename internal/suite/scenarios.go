package suite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/petfriends/pkg/petfriends"
)

// Scenario is one independent end-to-end check.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// invalidKey is accepted by no deployment.
var invalidKey = petfriends.AuthKey{Key: "1"}

var (
	validPet       = petfriends.NewPet{Name: "der", AnimalType: "cat", Age: "4"}
	negativeAgePet = petfriends.NewPet{Name: "der", AnimalType: "cat", Age: "-4"}
	seedPet        = petfriends.NewPet{Name: "Loom", AnimalType: "cat", Age: "10"}
	renamedPet     = petfriends.NewPet{Name: "Мурзик", AnimalType: "Котэ", Age: "5"}
	longName       = "многобукв" + strings.Repeat("o", 10000) + "т"
)

// Scenarios returns the suite in run order.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "api_key_valid_user", Description: "valid credentials yield a key", Run: apiKeyValidUser},
		{Name: "list_all_pets_valid_key", Description: "the full catalog is listed", Run: listAllPetsValidKey},
		{Name: "add_pet_valid_data", Description: "a created pet echoes its fields", Run: addPetValidData},
		{Name: "delete_first_own_pet", Description: "a deleted pet leaves my_pets", Run: deleteFirstOwnPet},
		{Name: "update_own_pet", Description: "an updated pet echoes the new name", Run: updateOwnPet},
		{Name: "api_key_invalid_email", Description: "an unknown email is forbidden", Run: apiKeyInvalidEmail},
		{Name: "api_key_invalid_password", Description: "a wrong password is forbidden", Run: apiKeyInvalidPassword},
		{Name: "list_pets_invalid_key", Description: "listing with a bogus key is forbidden", Run: listPetsInvalidKey},
		{Name: "add_pet_invalid_key", Description: "creating with a bogus key is forbidden", Run: addPetInvalidKey},
		{Name: "add_pet_negative_age", Description: "negative age handling", Run: addPetNegativeAge},
		{Name: "add_pet_long_name", Description: "oversized name handling", Run: addPetLongName},
		{Name: "add_pet_wrong_photo_format", Description: "non-image photo handling", Run: addPetWrongPhotoFormat},
		{Name: "add_pet_without_photo", Description: "the photo endpoint requires a photo", Run: addPetWithoutPhoto},
		{Name: "create_simple_without_name", Description: "create_pet_simple requires a name", Run: createSimpleWithoutName},
		{Name: "update_wrong_pet_id", Description: "updating an unknown id is rejected", Run: updateWrongPetID},
	}
}

// Select returns the named scenarios in suite order. An empty list selects all.
func Select(names ...string) ([]Scenario, error) {
	all := Scenarios()
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}
	var out []Scenario
	for _, sc := range all {
		if want[sc.Name] {
			out = append(out, sc)
			delete(want, sc.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		return nil, fmt.Errorf("unknown scenarios: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

func apiKeyValidUser(ctx context.Context, env *Env) error {
	resp, err := env.Client.GetAPIKey(ctx, env.Valid.Email, env.Valid.Password)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if key, ok := resp.Body.String("key"); !ok || key == "" {
		return fmt.Errorf("response has no key: %s", describe(resp.Body))
	}
	return nil
}

func listAllPetsValidKey(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	resp, err := env.Client.ListPets(ctx, key, petfriends.FilterAll)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	list, err := resp.Pets()
	if err != nil {
		return err
	}
	if len(list.Pets) == 0 {
		return errors.New("catalog is empty")
	}
	return nil
}

func addPetValidData(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	resp, err := env.addPet(ctx, key, validPet, env.Photo)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	return expectFields(resp, petFields(validPet))
}

func deleteFirstOwnPet(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	list, err := env.ensureMyPet(ctx, key, seedPet)
	if err != nil {
		return err
	}
	if len(list.Pets) == 0 {
		return errors.New("no own pet to delete")
	}
	id := list.Pets[0].ID

	resp, err := env.Client.DeletePet(ctx, key, id)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	env.forget(id)

	after, err := env.myPets(ctx, key)
	if err != nil {
		return err
	}
	if after.Contains(id) {
		return fmt.Errorf("pet %s still listed after delete", id)
	}
	return nil
}

func updateOwnPet(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	list, err := env.ensureMyPet(ctx, key, seedPet)
	if err != nil {
		return err
	}
	if len(list.Pets) == 0 {
		return errors.New("there are no own pets to update")
	}
	resp, err := env.Client.UpdatePetInfo(ctx, key, list.Pets[0].ID, renamedPet)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	return expectFields(resp, map[string]string{"name": renamedPet.Name})
}

func apiKeyInvalidEmail(ctx context.Context, env *Env) error {
	return expectForbiddenKey(ctx, env, env.Invalid.Email, env.Valid.Password)
}

func apiKeyInvalidPassword(ctx context.Context, env *Env) error {
	return expectForbiddenKey(ctx, env, env.Valid.Email, env.Invalid.Password)
}

func expectForbiddenKey(ctx context.Context, env *Env, email, password string) error {
	resp, err := env.Client.GetAPIKey(ctx, email, password)
	if err != nil {
		return err
	}
	return expectForbidden(resp)
}

func listPetsInvalidKey(ctx context.Context, env *Env) error {
	resp, err := env.Client.ListPets(ctx, invalidKey, petfriends.FilterAll)
	if err != nil {
		return err
	}
	return expectForbidden(resp)
}

func addPetInvalidKey(ctx context.Context, env *Env) error {
	resp, err := env.addPet(ctx, invalidKey, validPet, env.Photo)
	if err != nil {
		return err
	}
	return expectForbidden(resp)
}

func expectForbidden(resp *petfriends.Response) error {
	if err := expectStatus(resp, http.StatusForbidden); err != nil {
		return err
	}
	return expectContains(resp, "Forbidden")
}

func addPetNegativeAge(ctx context.Context, env *Env) error {
	return expectLenientCreate(ctx, env, negativeAgePet, env.Photo, true)
}

func addPetLongName(ctx context.Context, env *Env) error {
	return expectLenientCreate(ctx, env, petfriends.NewPet{Name: longName, AnimalType: "cat", Age: "-4"}, env.Photo, true)
}

func addPetWrongPhotoFormat(ctx context.Context, env *Env) error {
	return expectLenientCreate(ctx, env, negativeAgePet, env.BadPhoto, false)
}

// expectLenientCreate covers inputs the live service accepts although a
// stricter server would refuse them. Env.Strict flips the expectation to 400.
func expectLenientCreate(ctx context.Context, env *Env, pet petfriends.NewPet, photo string, echo bool) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	resp, err := env.addPet(ctx, key, pet, photo)
	if err != nil {
		return err
	}
	if env.Strict {
		return expectStatus(resp, http.StatusBadRequest)
	}
	if err := expectStatus(resp, http.StatusOK); err != nil || !echo {
		return err
	}
	return expectFields(resp, petFields(pet))
}

func addPetWithoutPhoto(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	resp, err := env.Client.AddNewPetNoPhoto(ctx, key, petfriends.NewPet{Name: "www", AnimalType: "cot", Age: "2"})
	if err != nil {
		return err
	}
	env.track(resp)
	return expectStatus(resp, http.StatusBadRequest)
}

func createSimpleWithoutName(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	resp, err := env.Client.CreatePetSimpleNoName(ctx, key, "cot", "10")
	if err != nil {
		return err
	}
	env.track(resp)
	return expectStatus(resp, http.StatusBadRequest)
}

func updateWrongPetID(ctx context.Context, env *Env) error {
	key, err := env.login(ctx)
	if err != nil {
		return err
	}
	if _, err := env.ensureMyPet(ctx, key, petfriends.NewPet{Name: "Loom", AnimalType: "dog", Age: "10"}); err != nil {
		return err
	}
	resp, err := env.Client.UpdatePetInfoWithoutType(ctx, key, "1", "www", "2")
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusBadRequest)
}

func petFields(p petfriends.NewPet) map[string]string {
	return map[string]string{
		"name":        p.Name,
		"animal_type": p.AnimalType,
		"age":         p.Age,
	}
}
