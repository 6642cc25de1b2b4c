package agreement

import "fmt"

// Association identifies the association the agreement is signed with.
type Association struct {
	Name  string
	Email string
}

var titleLines = []string{
	"Déclaration d'acceptation des documents",
	"et engagement en tant que membre",
}

const (
	identitySection    = "1. Identité du membre"
	declarationSection = "2. Déclaration d'acceptation des documents"
	commitmentSection  = "3. Engagement du membre"
	signatureSection   = "4. Validation et signature"

	declarationPrefix = "Je soussigné·e, "
	cityLabel         = "Fait à : "
	dateLabel         = "Date : "
	signatureCaption  = "Signature du membre :"
)

var documentList = []string{
	"Règlement intérieur",
	"Annexe : Code de bonne conduite",
	"Charte de confidentialité",
	"Politique de confidentialité",
	"Règlement Discord",
}

func declarationSuffix(a Association) string {
	return fmt.Sprintf(", atteste avoir pris connaissance des documents suivants de l'association %s :", a.Name)
}

func acceptanceParagraphs(a Association) []string {
	return []string{
		"Je déclare avoir lu, compris et accepter sans réserve l'ensemble des règles, valeurs et engagements mentionnés dans ces documents.",
		fmt.Sprintf("Je m'engage à respecter le règlement intérieur de %s et à me conformer aux décisions du bureau et des instances de l'association.", a.Name),
		"Je reconnais que mon adhésion implique le respect de ces engagements et que tout manquement pourra entraîner des mesures disciplinaires définies dans le règlement intérieur.",
	}
}

func commitments(a Association) []string {
	return []string{
		fmt.Sprintf("Je m'engage à respecter les valeurs de %s, basées sur l'entraide, l'inclusion et la solidarité.", a.Name),
		"Je respecte la confidentialité des échanges au sein de l'association et des projets auxquels je participe.",
		"Je veille à adopter un comportement bienveillant et respectueux sur les plateformes de communication (Discord, événements, échanges directs).",
		"Je m'engage à respecter le règlement intérieur de l'association.",
		"Je suis informé·e que toute diffusion de contenu illégal, injurieux, discriminatoire ou portant atteinte à une personne ou à une communauté est strictement interdite.",
		fmt.Sprintf("Je comprends que %s est une association indépendante et que mon engagement est bénévole.", a.Name),
	}
}
