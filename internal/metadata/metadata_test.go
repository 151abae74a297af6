package metadata

import (
	"encoding/json"
	"testing"
)

func TestRespondTokenFive(t *testing.T) {
	raw, err := json.Marshal(Respond("5"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"Crypto Dev #5","description":"Crypto Dev is a collection of developers in crypto","image":"https://raw.githubusercontent.com/LearnWeb3DAO/NFT-Collection/main/my-app/public/cryptodevs/5.svg"}`
	if string(raw) != want {
		t.Errorf("got  %s\nwant %s", raw, want)
	}
}

func TestRespondIsConcatenation(t *testing.T) {
	for _, id := range []string{"0", "1", "19", "20", "999", "abc", "", "../x", "1 2"} {
		doc := Respond(id)
		if doc.Name != "Crypto Dev #"+id {
			t.Errorf("Respond(%q).Name = %q", id, doc.Name)
		}
		if doc.Image != DefaultImageBase+id+".svg" {
			t.Errorf("Respond(%q).Image = %q", id, doc.Image)
		}
		if doc.Description != DefaultDescription {
			t.Errorf("Respond(%q).Description = %q", id, doc.Description)
		}
	}
}

func TestCollectionWithDefaults(t *testing.T) {
	c := Collection{ImageBase: "https://cdn.example/devs/"}.WithDefaults()
	if c.NamePrefix != DefaultNamePrefix || c.ImageExt != DefaultImageExt {
		t.Errorf("defaults not applied: %+v", c)
	}
	if got := c.Respond("3").Image; got != "https://cdn.example/devs/3.svg" {
		t.Errorf("image = %q", got)
	}
}

func TestResponderUpdate(t *testing.T) {
	r := NewResponder(Collection{})
	if r.Respond("1") != Respond("1") {
		t.Fatal("empty collection should behave like the default")
	}

	r.Update(Collection{NamePrefix: "Dev ", ImageBase: "ipfs://cid/", ImageExt: ".png"})
	doc := r.Respond("7")
	if doc.Name != "Dev 7" || doc.Image != "ipfs://cid/7.png" || doc.Description != DefaultDescription {
		t.Errorf("doc = %+v", doc)
	}
}
