package llm

import "fmt"

// Section names must come back byte-for-byte from the OCR text, garbling
// included: the extractor matches them literally against the source lines.
const detectSectionsPrompt = `Analyse ce texte OCR de menu et retourne uniquement un JSON avec les noms des sections et le titre du restaurant/menu.

Format EXACT:
{
  "menu_title": "Nom du Restaurant/Menu",
  "sections": ["SECTION1", "SECTION2", "SECTION3"]
}

Instructions:
1. Identifie le titre/nom du restaurant (généralement en haut du menu). Si aucun nom n'est visible, invente un titre descriptif (type de cuisine) — menu_title ne doit JAMAIS être null ou vide
2. Identifie automatiquement toutes les sections du menu (entrées, plats, desserts, pizzas, boissons, etc.)
3. GARDE EXACTEMENT les noms de sections comme ils apparaissent dans le texte OCR - ne les traduis PAS, ne les corrige PAS, ne les modifie PAS, même si l'OCR les a déformés
4. Ne retourne QUE le JSON, rien d'autre`

func buildAnalyzeSectionPrompt(sectionName, languageHint string) string {
	return fmt.Sprintf(`Analyse cette section de menu nommée "%[1]s" et retourne uniquement un JSON valide suivant cette structure:

{
  "name": "nom_section_corrigé",
  "items": [
    {
      "name": "nom_plat",
      "price": {"value": 12.50, "currency": "€"},
      "description": "description_complète",
      "ingredients": ["ingrédient1", "ingrédient2"],
      "dietary": ["végétarien"],
      "allergens": ["gluten"]
    }
  ]
}

Instructions:
1. CORRIGE les erreurs OCR évidentes dans le nom de section "%[1]s":
   - "PRZE" → "PIZZE"
   - "DOLC" → "DOLCI"
   - "ANTPASTI" → "ANTIPASTI"
   - "CARNE" → garde "CARNE" (correct)
   Utilise le nom corrigé dans le champ "name" du JSON
2. Pour chaque item: nom, prix, description, ingrédients (déduis-les de la description si nécessaire)
3. Prix: utilise uniquement €, $, £, CHF pour currency. Si autre chose ou illisible, mets null
4. Langue de l'utilisateur: %[2]s. Traduis les descriptions si le menu est dans une autre langue, mais garde les spécialités et ingrédients authentiques en langue originale

IMPORTANT - Régimes alimentaires (sois très prudent, en cas de doute laisse dietary vide []):
- "végétarien": AUCUNE viande, poisson, fruits de mer (œufs/lait OK)
- "végétalien": AUCUN produit animal (pas de viande, poisson, œufs, lait, miel, beurre)
- "sans_gluten": AUCUN blé, orge, seigle, avoine (attention aux sauces, panure)
- "sans_lactose": AUCUN lait, crème, fromage, beurre, yaourt

ATTENTION - VIANDES (jamais végétarien): jambon, prosciutto, bacon, lardons, pancetta, saucisse, chorizo, pepperoni, salami, coppa, bresaola, bœuf, porc, agneau, veau, poulet, canard, dinde

ALLERGÈNES: liste toujours présente (éventuellement vide), uniquement parmi les 14 allergènes européens: gluten, crustacés, œufs, poissons, arachides, soja, lait, fruits_à_coque, céleri, moutarde, sésame, sulfites, lupin, mollusques

IMPORTANT: Inclus TOUS les éléments présents dans cette section.
Retourne UNIQUEMENT le JSON, sans texte additionnel.`, sectionName, languageHint)
}

func buildWholeMenuPrompt(languageHint string) string {
	return fmt.Sprintf(`Analyse ce texte OCR de menu de restaurant et retourne uniquement un JSON valide suivant cette structure:

{
  "name": "Nom du Restaurant/Menu",
  "sections": [
    {
      "name": "nom_section",
      "items": [
        {
          "name": "nom_plat",
          "price": {"value": 12.50, "currency": "€"},
          "description": "description_complète",
          "ingredients": ["ingrédient1"],
          "dietary": [],
          "allergens": []
        }
      ]
    }
  ]
}

Instructions:
1. Identifie le nom du restaurant; invente un titre descriptif si aucun n'est visible
2. Regroupe tous les plats dans leurs sections d'origine, dans l'ordre du menu
3. Prix: uniquement €, $, £, CHF pour currency, sinon null
4. Langue de l'utilisateur: %s
5. Régimes alimentaires: conservateur, en cas de doute laisse dietary vide
6. Retourne UNIQUEMENT le JSON, sans texte additionnel`, languageHint)
}
